package export

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	athenatypes "github.com/aws/aws-sdk-go-v2/service/athena/types"
)

type fakeAthena struct {
	states []athenatypes.QueryExecutionState
	polls  int

	startInput *athena.StartQueryExecutionInput
}

func (f *fakeAthena) StartQueryExecution(_ context.Context, in *athena.StartQueryExecutionInput, _ ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error) {
	f.startInput = in
	return &athena.StartQueryExecutionOutput{QueryExecutionId: aws.String("qid-1")}, nil
}

func (f *fakeAthena) GetQueryExecution(_ context.Context, _ *athena.GetQueryExecutionInput, _ ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error) {
	state := f.states[len(f.states)-1]
	if f.polls < len(f.states) {
		state = f.states[f.polls]
	}
	f.polls++
	reason := "partition mismatch"
	return &athena.GetQueryExecutionOutput{
		QueryExecution: &athenatypes.QueryExecution{
			Status: &athenatypes.QueryExecutionStatus{
				State:             state,
				StateChangeReason: &reason,
			},
		},
	}, nil
}

func setRepairEnv(t *testing.T) {
	t.Setenv("ATHENA_DATABASE", "analytics")
	t.Setenv("ATHENA_TABLE", "")
	t.Setenv("ATHENA_WORKGROUP", "")
	t.Setenv("ATHENA_OUTPUT", "s3://analytics-results/queries/")
}

func TestRepairPartitionsSucceedsAfterPolling(t *testing.T) {
	setRepairEnv(t)
	fake := &fakeAthena{states: []athenatypes.QueryExecutionState{
		athenatypes.QueryExecutionStateRunning,
		athenatypes.QueryExecutionStateRunning,
		athenatypes.QueryExecutionStateSucceeded,
	}}

	res, err := RepairPartitions(context.Background(), fake, time.Millisecond, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if res.QueryID != "qid-1" || res.State != "SUCCEEDED" {
		t.Errorf("result = %+v", res)
	}
	if fake.polls != 3 {
		t.Errorf("polls = %d, want 3", fake.polls)
	}

	q := aws.ToString(fake.startInput.QueryString)
	if q != "MSCK REPAIR TABLE daily_metrics;" {
		t.Errorf("query = %q", q)
	}
	if got := aws.ToString(fake.startInput.WorkGroup); got != "primary" {
		t.Errorf("workgroup default = %q, want primary", got)
	}
	if got := aws.ToString(fake.startInput.QueryExecutionContext.Database); got != "analytics" {
		t.Errorf("database = %q", got)
	}
}

func TestRepairPartitionsFailedQuery(t *testing.T) {
	setRepairEnv(t)
	fake := &fakeAthena{states: []athenatypes.QueryExecutionState{
		athenatypes.QueryExecutionStateFailed,
	}}

	res, err := RepairPartitions(context.Background(), fake, time.Millisecond, time.Second)
	if err == nil {
		t.Fatal("want error for FAILED query state")
	}
	if !strings.Contains(err.Error(), "partition mismatch") {
		t.Errorf("error should carry the state change reason, got %v", err)
	}
	if res.State != "FAILED" {
		t.Errorf("state = %q", res.State)
	}
}

func TestRepairPartitionsEnvValidation(t *testing.T) {
	tests := []struct {
		name     string
		database string
		output   string
	}{
		{"missing database", "", "s3://b/p/"},
		{"missing output", "analytics", ""},
		{"non-s3 output", "analytics", "http://b/p/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ATHENA_DATABASE", tt.database)
			t.Setenv("ATHENA_TABLE", "")
			t.Setenv("ATHENA_WORKGROUP", "")
			t.Setenv("ATHENA_OUTPUT", tt.output)

			fake := &fakeAthena{states: []athenatypes.QueryExecutionState{athenatypes.QueryExecutionStateSucceeded}}
			if _, err := RepairPartitions(context.Background(), fake, time.Millisecond, time.Second); err == nil {
				t.Error("want env validation error")
			}
			if fake.startInput != nil {
				t.Error("query should not start with invalid env")
			}
		})
	}
}

func TestRepairConfigured(t *testing.T) {
	t.Setenv("ATHENA_DATABASE", "")
	if repairConfigured() {
		t.Error("unset ATHENA_DATABASE should disable repair")
	}
	t.Setenv("ATHENA_DATABASE", "analytics")
	if !repairConfigured() {
		t.Error("set ATHENA_DATABASE should enable repair")
	}
}
