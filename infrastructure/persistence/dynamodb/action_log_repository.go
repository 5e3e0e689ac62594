package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"musicstore/domain/core/entities"
)

const pkActionLog = "ACTIONLOG"

// ActionLogRepository keeps action log entries under one partition sorted by
// time, so a descending query lists them newest first.
type ActionLogRepository struct {
	client    API
	tableName string
	logger    *zap.Logger
}

func NewActionLogRepository(client API, tableName string, logger *zap.Logger) *ActionLogRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActionLogRepository{client: client, tableName: tableName, logger: logger}
}

type actionLogItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	ActionLogID string `dynamodbav:"ActionLogID"`
	Controller  string `dynamodbav:"Controller"`
	Action      string `dynamodbav:"Action"`
	IP          string `dynamodbav:"IP"`
	DateTime    string `dynamodbav:"DateTime"`
}

func logSortKey(e *entities.ActionLog) string {
	return fmt.Sprintf("LOG#%s#%s", e.DateTime.UTC().Format("2006-01-02T15:04:05.000000000Z"), e.ActionLogID)
}

func (r *ActionLogRepository) Append(ctx context.Context, entry *entities.ActionLog) error {
	item, err := attributevalue.MarshalMap(actionLogItem{
		PK:          pkActionLog,
		SK:          logSortKey(entry),
		ActionLogID: entry.ActionLogID,
		Controller:  entry.Controller,
		Action:      entry.Action,
		IP:          entry.IP,
		DateTime:    entry.DateTime.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal action log: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return classify("append action log", err)
}

func (r *ActionLogRepository) query(ctx context.Context) ([]actionLogItem, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("PK").Equal(expression.Value(pkActionLog))).
		Build()
	if err != nil {
		return nil, err
	}
	raw, err := queryAll(ctx, r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	})
	if err != nil {
		return nil, classify("list action logs", err)
	}
	var items []actionLogItem
	if err := attributevalue.UnmarshalListOfMaps(raw, &items); err != nil {
		return nil, fmt.Errorf("unmarshal action logs: %w", err)
	}
	return items, nil
}

func (r *ActionLogRepository) List(ctx context.Context) ([]entities.ActionLog, error) {
	items, err := r.query(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]entities.ActionLog, 0, len(items))
	for _, i := range items {
		at, err := time.Parse(time.RFC3339Nano, i.DateTime)
		if err != nil {
			r.logger.Warn("skipping action log with bad timestamp", zap.String("action_log_id", i.ActionLogID))
			continue
		}
		out = append(out, entities.ActionLog{
			ActionLogID: i.ActionLogID,
			Controller:  i.Controller,
			Action:      i.Action,
			IP:          i.IP,
			DateTime:    at,
		})
	}
	return out, nil
}

func (r *ActionLogRepository) Truncate(ctx context.Context) error {
	items, err := r.query(ctx)
	if err != nil {
		return err
	}
	keys := make([]map[string]types.AttributeValue, 0, len(items))
	for _, i := range items {
		keys = append(keys, itemKey(i.PK, i.SK))
	}
	if err := deleteKeys(ctx, r.client, r.tableName, keys); err != nil {
		return classify("truncate action logs", err)
	}
	r.logger.Info("action log truncated", zap.Int("deleted", len(keys)))
	return nil
}
