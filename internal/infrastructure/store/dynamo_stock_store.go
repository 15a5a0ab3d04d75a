package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/example/pos-backoffice/internal/domain/ledger"
)

// DynamoStockStore persists stock records and movements in DynamoDB.
// Commits use TransactWriteItems with conditional version checks, so a
// record update and its ledger entry land together or not at all.
type DynamoStockStore struct {
	client        *dynamodb.Client
	recordTable   string
	movementTable string
	publisher     Publisher
}

// dynamoStockRecord represents the stock record item structure
type dynamoStockRecord struct {
	PK               string `dynamodbav:"pk"`
	ProductID        string `dynamodbav:"product_id"`
	WarehouseID      string `dynamodbav:"warehouse_id"`
	LocationID       string `dynamodbav:"location_id"`
	Quantity         int    `dynamodbav:"quantity"`
	ReservedQuantity int    `dynamodbav:"reserved_quantity"`
	MinStockLevel    int    `dynamodbav:"min_stock_level"`
	MaxStockLevel    int    `dynamodbav:"max_stock_level"`
	ReorderPoint     int    `dynamodbav:"reorder_point"`
	LastMovementAt   string `dynamodbav:"last_movement_at"`
	Version          int    `dynamodbav:"version"`
	GSI1PK           string `dynamodbav:"gsi1pk"`
}

// dynamoMovement represents the movement item structure
type dynamoMovement struct {
	PK              string `dynamodbav:"pk"`
	SK              string `dynamodbav:"sk"`
	ID              string `dynamodbav:"id"`
	ProductID       string `dynamodbav:"product_id"`
	WarehouseID     string `dynamodbav:"warehouse_id"`
	LocationID      string `dynamodbav:"location_id"`
	MovementType    string `dynamodbav:"movement_type"`
	Direction       string `dynamodbav:"direction"`
	Quantity        int    `dynamodbav:"quantity"`
	ReferenceNumber string `dynamodbav:"reference_number"`
	TransferRef     string `dynamodbav:"transfer_ref"`
	Notes           string `dynamodbav:"notes"`
	UserID          string `dynamodbav:"user_id"`
	CreatedAt       string `dynamodbav:"created_at"`
	GSI1PK          string `dynamodbav:"gsi1pk"`
}

func NewDynamoStockStore(client *dynamodb.Client, recordTable, movementTable string, publisher Publisher) *DynamoStockStore {
	return &DynamoStockStore{
		client:        client,
		recordTable:   recordTable,
		movementTable: movementTable,
		publisher:     publisher,
	}
}

func recordPK(key ledger.Key) string {
	return fmt.Sprintf("STOCK#%s#%s#%s", key.ProductID, key.WarehouseID, key.LocationID)
}

func (ds *DynamoStockStore) Get(ctx context.Context, key ledger.Key) (*ledger.StockRecord, error) {
	out, err := ds.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(ds.recordTable),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: recordPK(key)},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get stock record: %w", err)
	}
	if out.Item == nil {
		return nil, nil
	}

	var item dynamoStockRecord
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stock record: %w", err)
	}
	return item.toRecord()
}

func (ds *DynamoStockStore) List(ctx context.Context, productID, warehouseID string) ([]*ledger.StockRecord, error) {
	records, err := ds.All(ctx)
	if err != nil {
		return nil, err
	}

	var result []*ledger.StockRecord
	for _, rec := range records {
		if rec.ProductID != productID {
			continue
		}
		if warehouseID != "" && rec.WarehouseID != warehouseID {
			continue
		}
		result = append(result, rec)
	}
	return result, nil
}

func (ds *DynamoStockStore) All(ctx context.Context) ([]*ledger.StockRecord, error) {
	var records []*ledger.StockRecord
	var lastKey map[string]types.AttributeValue

	for {
		out, err := ds.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(ds.recordTable),
			IndexName:              aws.String("gsi1"),
			KeyConditionExpression: aws.String("gsi1pk = :pk"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: "STOCK"},
			},
			ExclusiveStartKey: lastKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to query stock records: %w", err)
		}

		for _, raw := range out.Items {
			var item dynamoStockRecord
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, fmt.Errorf("failed to unmarshal stock record: %w", err)
			}
			rec, err := item.toRecord()
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
		}

		if out.LastEvaluatedKey == nil {
			break
		}
		lastKey = out.LastEvaluatedKey
	}
	return records, nil
}

func (ds *DynamoStockStore) Commit(ctx context.Context, records []*ledger.StockRecord, movements []*ledger.Movement) error {
	var items []types.TransactWriteItem

	for _, rec := range records {
		item := dynamoStockRecord{
			PK:               recordPK(rec.Key),
			ProductID:        rec.ProductID,
			WarehouseID:      rec.WarehouseID,
			LocationID:       rec.LocationID,
			Quantity:         rec.Quantity,
			ReservedQuantity: rec.ReservedQuantity,
			MinStockLevel:    rec.MinStockLevel,
			MaxStockLevel:    rec.MaxStockLevel,
			ReorderPoint:     rec.ReorderPoint,
			LastMovementAt:   rec.LastMovementAt.Format(time.RFC3339Nano),
			Version:          rec.Version,
			GSI1PK:           "STOCK",
		}
		av, err := attributevalue.MarshalMap(item)
		if err != nil {
			return fmt.Errorf("failed to marshal stock record: %w", err)
		}

		put := &types.Put{
			TableName: aws.String(ds.recordTable),
			Item:      av,
		}
		// Optimistic locking: a new record must not exist, an update must
		// replace exactly the previous version.
		if rec.Version == 1 {
			put.ConditionExpression = aws.String("attribute_not_exists(pk)")
		} else {
			put.ConditionExpression = aws.String("version = :prev")
			put.ExpressionAttributeValues = map[string]types.AttributeValue{
				":prev": &types.AttributeValueMemberN{Value: strconv.Itoa(rec.Version - 1)},
			}
		}
		items = append(items, types.TransactWriteItem{Put: put})
	}

	for _, m := range movements {
		item := dynamoMovement{
			PK:              recordPK(m.Key),
			SK:              m.CreatedAt.Format(time.RFC3339Nano) + "#" + m.ID,
			ID:              m.ID,
			ProductID:       m.ProductID,
			WarehouseID:     m.WarehouseID,
			LocationID:      m.LocationID,
			MovementType:    string(m.Type),
			Direction:       string(m.Direction),
			Quantity:        m.Quantity,
			ReferenceNumber: m.ReferenceNumber,
			TransferRef:     m.TransferRef,
			Notes:           m.Notes,
			UserID:          m.UserID,
			CreatedAt:       m.CreatedAt.Format(time.RFC3339Nano),
			GSI1PK:          "MOVEMENTS",
		}
		av, err := attributevalue.MarshalMap(item)
		if err != nil {
			return fmt.Errorf("failed to marshal movement: %w", err)
		}
		items = append(items, types.TransactWriteItem{Put: &types.Put{
			TableName: aws.String(ds.movementTable),
			Item:      av,
		}})
	}

	_, err := ds.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) {
			return fmt.Errorf("%w: %v", ledger.ErrConcurrencyConflict, err)
		}
		return fmt.Errorf("failed to commit stock change: %w", err)
	}

	return publishEvents(ctx, ds.publisher, records, movements)
}

func (ds *DynamoStockStore) Movements(ctx context.Context, key ledger.Key) ([]ledger.Movement, error) {
	out, err := ds.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(ds.movementTable),
		KeyConditionExpression: aws.String("pk = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: recordPK(key)},
		},
		ScanIndexForward: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query movements: %w", err)
	}
	return unmarshalMovements(out.Items)
}

func (ds *DynamoStockStore) AllMovements(ctx context.Context) ([]ledger.Movement, error) {
	var movements []ledger.Movement
	var lastKey map[string]types.AttributeValue

	for {
		out, err := ds.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(ds.movementTable),
			IndexName:              aws.String("gsi1"),
			KeyConditionExpression: aws.String("gsi1pk = :pk"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: "MOVEMENTS"},
			},
			ExclusiveStartKey: lastKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to query movements: %w", err)
		}

		batch, err := unmarshalMovements(out.Items)
		if err != nil {
			return nil, err
		}
		movements = append(movements, batch...)

		if out.LastEvaluatedKey == nil {
			break
		}
		lastKey = out.LastEvaluatedKey
	}
	return movements, nil
}

func unmarshalMovements(items []map[string]types.AttributeValue) ([]ledger.Movement, error) {
	movements := make([]ledger.Movement, 0, len(items))
	for _, raw := range items {
		var item dynamoMovement
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal movement: %w", err)
		}
		createdAt, err := time.Parse(time.RFC3339Nano, item.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse movement timestamp: %w", err)
		}
		movements = append(movements, ledger.Movement{
			ID: item.ID,
			Key: ledger.Key{
				ProductID:   item.ProductID,
				WarehouseID: item.WarehouseID,
				LocationID:  item.LocationID,
			},
			Type:            ledger.MovementType(item.MovementType),
			Direction:       ledger.Direction(item.Direction),
			Quantity:        item.Quantity,
			ReferenceNumber: item.ReferenceNumber,
			TransferRef:     item.TransferRef,
			Notes:           item.Notes,
			UserID:          item.UserID,
			CreatedAt:       createdAt,
		})
	}
	return movements, nil
}

func (item dynamoStockRecord) toRecord() (*ledger.StockRecord, error) {
	lastMovementAt, err := time.Parse(time.RFC3339Nano, item.LastMovementAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse record timestamp: %w", err)
	}
	return &ledger.StockRecord{
		Key: ledger.Key{
			ProductID:   item.ProductID,
			WarehouseID: item.WarehouseID,
			LocationID:  item.LocationID,
		},
		Quantity:         item.Quantity,
		ReservedQuantity: item.ReservedQuantity,
		MinStockLevel:    item.MinStockLevel,
		MaxStockLevel:    item.MaxStockLevel,
		ReorderPoint:     item.ReorderPoint,
		LastMovementAt:   lastMovementAt,
		Version:          item.Version,
	}, nil
}
