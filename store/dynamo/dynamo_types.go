package dynamo

import (
	"github.com/memora-app/memora/models"
	"github.com/memora-app/memora/store"
)

type dynamoRecord struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	Id         string `dynamodbav:"Id"`
	OwnerId    string `dynamodbav:"OwnerId"`
	Kind       string `dynamodbav:"Kind"`
	Version    int64  `dynamodbav:"Version"`
	State      string `dynamodbav:"State"`
	Payload    []byte `dynamodbav:"Payload"`
	UsageCount int64  `dynamodbav:"UsageCount"`
	CreatedAt  int64  `dynamodbav:"CreatedAt"`
	UpdatedAt  int64  `dynamodbav:"UpdatedAt"`
	TrashedAt  int64  `dynamodbav:"TrashedAt"`
	RestoredAt int64  `dynamodbav:"RestoredAt"`
	// OwnerKind is the partition key of GSI_OwnerRecords.
	OwnerKind string `dynamodbav:"OwnerKind"`
	// TrashBucket is the sparse partition key of GSI_TrashedRecords,
	// present only while the record is trashed so the index stays small.
	TrashBucket string `dynamodbav:"TrashBucket,omitempty"`
}

// guard items back CreateUnique: one per (kind, owner, uniqueness key),
// pointing at the record that won the provisioning race.
type dynamoGuard struct {
	PK       string `dynamodbav:"PK"`
	SK       string `dynamodbav:"SK"`
	RecordId string `dynamodbav:"RecordId"`
}

func recordPK(kind models.Kind, id string) string {
	return string(kind) + "#" + id
}

func guardPK(kind models.Kind, ownerId string, uniquenessKey string) string {
	return "UNIQ#" + string(kind) + "#" + ownerId + "#" + uniquenessKey
}

// Map domain Record -> Dynamo
func recordToDynamo(rec store.Record) dynamoRecord {
	dr := dynamoRecord{
		PK:         recordPK(rec.Kind, rec.Id),
		SK:         "RECORD",
		Id:         rec.Id,
		OwnerId:    rec.OwnerId,
		Kind:       string(rec.Kind),
		Version:    rec.Version,
		State:      string(rec.State),
		Payload:    rec.Payload,
		UsageCount: rec.UsageCount,
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
		TrashedAt:  rec.TrashedAt,
		RestoredAt: rec.RestoredAt,
		OwnerKind:  rec.OwnerId + "#" + string(rec.Kind),
	}
	if rec.State == models.StateTrashed {
		dr.TrashBucket = "TRASHED#" + string(rec.Kind)
	}
	return dr
}

// Map Dynamo -> domain Record
func recordFromDynamo(dr dynamoRecord) store.Record {
	return store.Record{
		Kind:       models.Kind(dr.Kind),
		Id:         dr.Id,
		OwnerId:    dr.OwnerId,
		Version:    dr.Version,
		State:      models.State(dr.State),
		Payload:    dr.Payload,
		UsageCount: dr.UsageCount,
		CreatedAt:  dr.CreatedAt,
		UpdatedAt:  dr.UpdatedAt,
		TrashedAt:  dr.TrashedAt,
		RestoredAt: dr.RestoredAt,
	}
}
