package export

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"backend/internal/analytics"
	"backend/internal/db"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/writer"
)

// DailyMetricsRow is one exported day of funnel aggregates.
type DailyMetricsRow struct {
	MetricDate        string  `parquet:"name=metric_date, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"` // YYYY-MM-DD
	Sessions          int64   `parquet:"name=sessions, type=INT64"`
	Recommendations   int64   `parquet:"name=recommendations, type=INT64"`
	CartAdds          int64   `parquet:"name=cart_adds, type=INT64"`
	VerifiedPurchases int64   `parquet:"name=verified_purchases, type=INT64"`
	ConversionRate    float64 `parquet:"name=conversion_rate, type=DOUBLE"`
	CartRevenue       float64 `parquet:"name=cart_revenue, type=DOUBLE"`
	VerifiedRevenue   float64 `parquet:"name=verified_revenue, type=DOUBLE"`
}

type DailyMetricsETL struct {
	ddb *dynamodb.Client
	s3  *s3.Client
	ath AthenaClient
}

func NewDailyMetricsETL(cfg aws.Config) *DailyMetricsETL {
	return &DailyMetricsETL{
		ddb: dynamodb.NewFromConfig(cfg),
		s3:  s3.NewFromConfig(cfg),
		ath: athena.NewFromConfig(cfg),
	}
}

// Handle is triggered by an EventBridge schedule.
//
// For each day in the backfill window it aggregates the events table and
// writes one Parquet row under:
//
//	daily_metrics/dt=YYYY-MM-DD/part-<rand>.parquet
//
// Env:
// - EVENTS_TABLE (required)
// - ANALYTICS_BUCKET (required)
// - DAILY_METRICS_PREFIX (default "daily_metrics/")
// - ETL_DAYS_BACK (default "1")
//
// When ATHENA_DATABASE is set, a partition repair runs after the export (see
// RepairPartitions for the rest of the ATHENA_* env).
func (h *DailyMetricsETL) Handle(ctx context.Context, _ events.CloudWatchEvent) (map[string]any, error) {
	table := strings.TrimSpace(db.EventsTableName())
	bucket := strings.TrimSpace(os.Getenv("ANALYTICS_BUCKET"))
	prefix := strings.TrimSpace(os.Getenv("DAILY_METRICS_PREFIX"))
	if prefix == "" {
		prefix = "daily_metrics/"
	}

	daysBack := 1
	if v := strings.TrimSpace(os.Getenv("ETL_DAYS_BACK")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 90 {
			daysBack = n
		}
	}

	if table == "" {
		return nil, fmt.Errorf("missing env EVENTS_TABLE")
	}
	if bucket == "" {
		return nil, fmt.Errorf("missing env ANALYTICS_BUCKET")
	}

	now := time.Now().UTC()
	written := 0
	totalEvents := 0

	for i := 0; i < daysBack; i++ {
		day := now.AddDate(0, 0, -i).Truncate(24 * time.Hour)
		next := day.AddDate(0, 0, 1)
		dtStr := day.Format("2006-01-02")

		evs, err := analytics.QueryRange(ctx, h.ddb, table, day, next)
		if err != nil {
			return nil, fmt.Errorf("load events for dt=%s: %w", dtStr, err)
		}
		sum := analytics.Summarize(evs, day, next)

		row := DailyMetricsRow{
			MetricDate:        dtStr,
			Sessions:          int64(sum.Sessions),
			Recommendations:   int64(sum.Recommendations),
			CartAdds:          int64(sum.CartAdds),
			VerifiedPurchases: int64(sum.VerifiedPurchases),
			ConversionRate:    sum.ConversionRate,
			CartRevenue:       sum.CartRevenue,
			VerifiedRevenue:   sum.VerifiedRevenue,
		}

		key := fmt.Sprintf("%sdt=%s/part-%s.parquet",
			ensureTrailingSlash(prefix), dtStr, randHex(8))

		if err := h.writeOneParquetRowToS3(ctx, bucket, key, row); err != nil {
			return nil, fmt.Errorf("write parquet for dt=%s: %w", dtStr, err)
		}

		written++
		totalEvents += sum.TotalEvents
	}

	out := map[string]any{
		"ok":          true,
		"days_back":   daysBack,
		"written":     written,
		"event_count": totalEvents,
		"bucket":      bucket,
		"prefix":      prefix,
	}

	// Register the new dt= partitions with the catalog so the exported rows
	// are actually queryable downstream.
	if repairConfigured() {
		res, err := RepairPartitions(ctx, h.ath, 2*time.Second, 60*time.Second)
		if err != nil {
			return nil, fmt.Errorf("repair partitions: %w", err)
		}
		out["repair_query_id"] = res.QueryID
		out["repair_state"] = res.State
	}

	return out, nil
}

func (h *DailyMetricsETL) writeOneParquetRowToS3(ctx context.Context, bucket, key string, row DailyMetricsRow) error {
	localPath := filepath.Join(os.TempDir(), "daily_metrics_"+randHex(8)+".parquet")

	fw, err := local.NewLocalFileWriter(localPath)
	if err != nil {
		return fmt.Errorf("parquet file writer: %w", err)
	}

	pw, err := writer.NewParquetWriter(fw, new(DailyMetricsRow), 1)
	if err != nil {
		_ = fw.Close()
		return fmt.Errorf("parquet writer: %w", err)
	}
	pw.RowGroupSize = 128 * 1024 * 1024
	pw.PageSize = 8 * 1024
	pw.CompressionType = 0

	if err := pw.Write(row); err != nil {
		_ = pw.WriteStop()
		_ = fw.Close()
		return fmt.Errorf("parquet write row: %w", err)
	}
	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return fmt.Errorf("parquet write stop: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("parquet close: %w", err)
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("read parquet tmp: %w", err)
	}
	defer func() { _ = os.Remove(localPath) }()

	_, err = h.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/octet-stream"),
		ACL:         s3types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return fmt.Errorf("s3 putobject failed: %w", err)
	}
	return nil
}

func ensureTrailingSlash(s string) string {
	if s == "" || strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}

func randHex(nBytes int) string {
	b := make([]byte, nBytes)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
