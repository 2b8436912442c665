package analytics

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// Event names recorded by the chat funnel.
const (
	EventWidgetOpened        = "widget_opened"
	EventChatMessage         = "chat_message_sent"
	EventRecommendationShown = "recommendation_shown"
	EventProductAddedToCart  = "product_added_to_cart"
	EventPurchaseVerified    = "purchase_verified"
)

// Timestamps are stored fixed-width so SK string order equals time order.
const tsFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Event is one append-only analytics record. Day-partitioned:
// PK=DAY#YYYY-MM-DD, SK=TS#<fixed-width ts>#<uuid>.
type Event struct {
	PK string `dynamodbav:"PK" json:"-"`
	SK string `dynamodbav:"SK" json:"id"`

	Name      string  `dynamodbav:"Name" json:"name"`
	SessionID string  `dynamodbav:"SessionID,omitempty" json:"sessionId,omitempty"`
	UserID    string  `dynamodbav:"UserID,omitempty" json:"userId,omitempty"`
	Value     float64 `dynamodbav:"Value" json:"value"`
	Props     string  `dynamodbav:"Props,omitempty" json:"props,omitempty"`
	CreatedAt string  `dynamodbav:"CreatedAt" json:"createdAt"`
}

// TrackInput is what callers record; storage keys are derived here.
type TrackInput struct {
	Name      string
	SessionID string
	UserID    string
	Value     float64
	Props     map[string]any
	At        time.Time
}

func dayKey(t time.Time) string {
	return "DAY#" + t.UTC().Format("2006-01-02")
}

// Track appends one event. Events are never updated afterwards.
func Track(ctx context.Context, client *dynamodb.Client, table string, in TrackInput) (*Event, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("event name is required")
	}
	if strings.TrimSpace(table) == "" {
		return nil, fmt.Errorf("events table not configured")
	}

	at := in.At
	if at.IsZero() {
		at = time.Now()
	}
	at = at.UTC()

	props := ""
	if len(in.Props) > 0 {
		b, err := json.Marshal(in.Props)
		if err != nil {
			return nil, fmt.Errorf("marshal props: %w", err)
		}
		props = string(b)
	}

	ev := Event{
		PK:        dayKey(at),
		SK:        fmt.Sprintf("TS#%s#%s", at.Format(tsFormat), uuid.NewString()),
		Name:      in.Name,
		SessionID: strings.TrimSpace(in.SessionID),
		UserID:    strings.TrimSpace(in.UserID),
		Value:     in.Value,
		Props:     props,
		CreatedAt: at.Format(time.RFC3339),
	}

	av, err := attributevalue.MarshalMap(ev)
	if err != nil {
		return nil, err
	}

	if _, err := client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      av,
	}); err != nil {
		return nil, fmt.Errorf("put event: %w", err)
	}
	return &ev, nil
}

// QueryRange loads all events with from <= t < to by walking day partitions.
func QueryRange(ctx context.Context, client *dynamodb.Client, table string, from, to time.Time) ([]Event, error) {
	if strings.TrimSpace(table) == "" {
		return nil, fmt.Errorf("events table not configured")
	}
	from = from.UTC()
	to = to.UTC()
	if !from.Before(to) {
		return nil, nil
	}

	lo := "TS#" + from.Format(tsFormat)
	hi := "TS#" + to.Format(tsFormat)

	var out []Event
	day := from.Truncate(24 * time.Hour)
	lastDay := to.Add(-time.Nanosecond).Truncate(24 * time.Hour)

	for !day.After(lastDay) {
		var eks map[string]types.AttributeValue
		for {
			res, err := client.Query(ctx, &dynamodb.QueryInput{
				TableName:              aws.String(table),
				KeyConditionExpression: aws.String("PK = :pk AND SK BETWEEN :lo AND :hi"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":pk": &types.AttributeValueMemberS{Value: dayKey(day)},
					":lo": &types.AttributeValueMemberS{Value: lo},
					":hi": &types.AttributeValueMemberS{Value: hi},
				},
				ExclusiveStartKey: eks,
			})
			if err != nil {
				return nil, fmt.Errorf("query events for %s: %w", day.Format("2006-01-02"), err)
			}

			var page []Event
			if err := attributevalue.UnmarshalListOfMaps(res.Items, &page); err != nil {
				return nil, err
			}
			out = append(out, page...)

			if len(res.LastEvaluatedKey) == 0 {
				break
			}
			eks = res.LastEvaluatedKey
		}
		day = day.AddDate(0, 0, 1)
	}

	return out, nil
}

// ListOptions drives the paginated raw-event listing on the admin dashboard.
type ListOptions struct {
	From      time.Time
	To        time.Time
	Name      string // optional filter
	Limit     int
	NextToken string
}

type listCursor struct {
	Day string            `json:"day"`
	EKS map[string]string `json:"eks,omitempty"`
}

// ListEvents pages newest-first across day partitions.
func ListEvents(ctx context.Context, client *dynamodb.Client, table string, opts ListOptions) ([]Event, string, error) {
	if strings.TrimSpace(table) == "" {
		return nil, "", fmt.Errorf("events table not configured")
	}

	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	fromDay := opts.From.UTC().Truncate(24 * time.Hour)
	day := opts.To.UTC().Add(-time.Nanosecond).Truncate(24 * time.Hour)

	var eks map[string]types.AttributeValue
	if opts.NextToken != "" {
		cur, err := decodeCursor(opts.NextToken)
		if err != nil {
			return nil, "", fmt.Errorf("invalid nextToken")
		}
		d, err := time.Parse("2006-01-02", cur.Day)
		if err != nil {
			return nil, "", fmt.Errorf("invalid nextToken")
		}
		day = d
		eks = map[string]types.AttributeValue{}
		for k, v := range cur.EKS {
			eks[k] = &types.AttributeValueMemberS{Value: v}
		}
		if len(eks) == 0 {
			eks = nil
		}
	}

	lo := "TS#" + opts.From.UTC().Format(tsFormat)
	hi := "TS#" + opts.To.UTC().Format(tsFormat)

	var out []Event
	for !day.Before(fromDay) && len(out) < limit {
		in := &dynamodb.QueryInput{
			TableName:              aws.String(table),
			KeyConditionExpression: aws.String("PK = :pk AND SK BETWEEN :lo AND :hi"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: dayKey(day)},
				":lo": &types.AttributeValueMemberS{Value: lo},
				":hi": &types.AttributeValueMemberS{Value: hi},
			},
			ScanIndexForward:  aws.Bool(false),
			Limit:             aws.Int32(int32(limit - len(out))),
			ExclusiveStartKey: eks,
		}
		if strings.TrimSpace(opts.Name) != "" {
			in.FilterExpression = aws.String("#n = :name")
			in.ExpressionAttributeNames = map[string]string{"#n": "Name"}
			in.ExpressionAttributeValues[":name"] = &types.AttributeValueMemberS{Value: opts.Name}
		}

		res, err := client.Query(ctx, in)
		if err != nil {
			return nil, "", fmt.Errorf("list events: %w", err)
		}

		var page []Event
		if err := attributevalue.UnmarshalListOfMaps(res.Items, &page); err != nil {
			return nil, "", err
		}
		out = append(out, page...)

		if len(res.LastEvaluatedKey) > 0 {
			if len(out) >= limit {
				return out, encodeCursor(day, res.LastEvaluatedKey), nil
			}
			eks = res.LastEvaluatedKey
			continue
		}

		eks = nil
		day = day.AddDate(0, 0, -1)
		if len(out) >= limit && !day.Before(fromDay) {
			return out, encodeCursor(day, nil), nil
		}
	}

	return out, "", nil
}

func encodeCursor(day time.Time, lek map[string]types.AttributeValue) string {
	cur := listCursor{Day: day.Format("2006-01-02")}
	if len(lek) > 0 {
		cur.EKS = map[string]string{}
		for k, av := range lek {
			if s, ok := av.(*types.AttributeValueMemberS); ok {
				cur.EKS[k] = s.Value
			}
		}
	}
	b, _ := json.Marshal(cur)
	return base64.RawURLEncoding.EncodeToString(b)
}

func decodeCursor(token string) (listCursor, error) {
	var cur listCursor
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return cur, err
	}
	if err := json.Unmarshal(raw, &cur); err != nil {
		return cur, err
	}
	return cur, nil
}
