package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sitecore/order-marketplace/internal/core/domain"
	"github.com/sitecore/order-marketplace/internal/core/ports"
)

const collectionOrderEvents = "order_events"

// EventLog appends lifecycle events to the order_events audit collection.
type EventLog struct {
	col *mongo.Collection
}

var _ ports.EventHandler = (*EventLog)(nil)

func NewEventLog(db *mongo.Database) *EventLog {
	return &EventLog{col: db.Collection(collectionOrderEvents)}
}

// Handle persists one event.
func (l *EventLog) Handle(ctx context.Context, event domain.OrderEvent) error {
	doc := bson.M{
		"type":         string(event.Type),
		"order_id":     event.OrderID,
		"client_id":    event.ClientID,
		"budget":       event.Budget,
		"at":           event.At.UTC(),
		"processed_at": time.Now().UTC(),
	}
	if event.ExecutorID != "" {
		doc["executor_id"] = event.ExecutorID
	}
	if event.From != "" {
		doc["from"] = string(event.From)
	}
	if event.To != "" {
		doc["to"] = string(event.To)
	}
	if event.ProjectType != "" {
		doc["project_type"] = string(event.ProjectType)
	}

	_, err := l.col.InsertOne(ctx, doc)
	return err
}

// EnsureIndexes creates the lookup indexes on the audit collection.
func (l *EventLog) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := l.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "order_id", Value: 1}, {Key: "at", Value: 1}}},
		{Keys: bson.D{{Key: "type", Value: 1}}},
	})
	return err
}
