package export

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	athenatypes "github.com/aws/aws-sdk-go-v2/service/athena/types"
)

// AthenaClient is the slice of the Athena API the partition repair needs.
type AthenaClient interface {
	StartQueryExecution(ctx context.Context, in *athena.StartQueryExecutionInput, opts ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, in *athena.GetQueryExecutionInput, opts ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error)
}

// RepairResult reports one partition-repair run.
type RepairResult struct {
	QueryID string `json:"query_id"`
	State   string `json:"state"`
}

// repairConfigured reports whether a catalog is set up for the export. Without
// one the Parquet files still land in S3 but nothing downstream can see new
// dt= partitions.
func repairConfigured() bool {
	return strings.TrimSpace(os.Getenv("ATHENA_DATABASE")) != ""
}

// RepairPartitions registers newly exported dt= partitions with the catalog
// by running MSCK REPAIR TABLE and polling until the query settles.
//
// Env:
// - ATHENA_DATABASE (required)
// - ATHENA_TABLE (default "daily_metrics")
// - ATHENA_WORKGROUP (default "primary")
// - ATHENA_OUTPUT (required, s3://bucket/prefix/)
func RepairPartitions(ctx context.Context, ath AthenaClient, pollEvery, timeout time.Duration) (RepairResult, error) {
	database := strings.TrimSpace(os.Getenv("ATHENA_DATABASE"))
	tableName := strings.TrimSpace(os.Getenv("ATHENA_TABLE"))
	workgroup := strings.TrimSpace(os.Getenv("ATHENA_WORKGROUP"))
	output := strings.TrimSpace(os.Getenv("ATHENA_OUTPUT"))

	if database == "" {
		return RepairResult{}, fmt.Errorf("missing env ATHENA_DATABASE")
	}
	if !strings.HasPrefix(output, "s3://") {
		return RepairResult{}, fmt.Errorf("ATHENA_OUTPUT must start with s3://")
	}
	if tableName == "" {
		tableName = "daily_metrics"
	}
	if workgroup == "" {
		workgroup = "primary"
	}

	startOut, err := ath.StartQueryExecution(ctx, &athena.StartQueryExecutionInput{
		QueryString: aws.String(fmt.Sprintf("MSCK REPAIR TABLE %s;", tableName)),
		QueryExecutionContext: &athenatypes.QueryExecutionContext{
			Database: aws.String(database),
		},
		WorkGroup: aws.String(workgroup),
		ResultConfiguration: &athenatypes.ResultConfiguration{
			OutputLocation: aws.String(output),
		},
	})
	if err != nil {
		return RepairResult{}, fmt.Errorf("start repair: %w", err)
	}

	qid := aws.ToString(startOut.QueryExecutionId)
	log.Printf("etl: repair started qid=%s db=%s table=%s wg=%s", qid, database, tableName, workgroup)

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		st, err := ath.GetQueryExecution(ctx, &athena.GetQueryExecutionInput{
			QueryExecutionId: aws.String(qid),
		})
		if err != nil {
			return RepairResult{QueryID: qid}, fmt.Errorf("poll repair: %w", err)
		}

		state := string(st.QueryExecution.Status.State)
		switch state {
		case "SUCCEEDED":
			return RepairResult{QueryID: qid, State: state}, nil
		case "FAILED", "CANCELLED":
			reason := ""
			if st.QueryExecution.Status.StateChangeReason != nil {
				reason = *st.QueryExecution.Status.StateChangeReason
			}
			return RepairResult{QueryID: qid, State: state}, fmt.Errorf("repair %s: %s", strings.ToLower(state), reason)
		}
		time.Sleep(pollEvery)
	}

	return RepairResult{QueryID: qid, State: "TIMEOUT"}, fmt.Errorf("repair timed out for qid=%s", qid)
}
