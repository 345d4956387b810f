package core

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/auditor/internal/contract"
	"github.com/huangsam/auditor/internal/iocache"
	"github.com/huangsam/auditor/internal/llm"
	"github.com/huangsam/auditor/internal/metrics"
	"github.com/huangsam/auditor/internal/notify"
	"github.com/huangsam/auditor/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const violationsDoc = `{"violations":[
  {"type":"Unauthorized Equipment Use"},
  {"type":"Safety PPE Non-Compliance","percent":0.1,"code":"PPE-2"}
]}`

func TestGetRiskResults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "violations.json", violationsDoc)

	store := &iocache.MockAuditStore{}
	store.On("BeginRun", "risk", mock.Anything, mock.Anything).Return(int64(3), nil).Once()
	store.On("RecordRiskProfile", int64(3), mock.MatchedBy(func(p schema.RiskProfile) bool {
		return p.TotalViolations == 2 && p.Subject.EmployeeID == "E-42"
	})).Return(nil).Once()
	store.On("EndRun", int64(3), mock.Anything, mock.MatchedBy(func(s schema.RunSummary) bool {
		return s.Status == "" && s.Subject == "E-42" && s.Findings == 2
	})).Return(nil).Once()
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetAuditStore").Return(store)
	mgr.On("GetCacheStore").Return(nil)

	cfg := testConfig(t, path)
	cfg.Subject = schema.Subject{EmployeeID: "E-42", Name: "Avery Cole", Salary: 60000}

	profile, err := GetRiskResults(WithSuppressHeader(context.Background()), cfg, mgr, metrics.New())
	require.NoError(t, err)

	require.Len(t, profile.Violations, 2)
	assert.InDelta(t, 0.06, profile.Violations[0].Percent, 1e-9, "percent comes from the catalog")
	assert.Equal(t, "Equipment", profile.Violations[0].Category)
	assert.InDelta(t, 0.1, profile.Violations[1].Percent, 1e-9, "explicit percent wins")
	assert.Equal(t, "PPE-2", profile.Violations[1].Code)

	assert.InDelta(t, 0.08, profile.AverageSeverity, 1e-9)
	assert.InDelta(t, 4800, profile.RiskCostImpact, 1e-6)
	assert.Equal(t, schema.GoodStanding, profile.RiskCategory)
	assert.Equal(t, "Avery Cole", profile.Subject.Name)
	assert.Len(t, profile.WorkOrders, 2)
	assert.Len(t, profile.EquipmentIntelligence, 1)

	store.AssertExpectations(t)
}

func TestGetRiskResultsRequiresInput(t *testing.T) {
	_, err := GetRiskResults(context.Background(), testConfig(t), nil, nil)
	assert.ErrorIs(t, err, ErrNoViolationsFile)

	bad := writeFile(t, t.TempDir(), "bad.json", `[{"type":"X","percent":3}]`)
	_, err = GetRiskResults(context.Background(), testConfig(t, bad), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "between 0 and 1")
}

func TestAssessViolationsPolicy(t *testing.T) {
	violations := []schema.Violation{
		{Type: "A", Percent: 0.5},
		{Type: "B", Percent: 0.5},
	}
	cfg := &contract.Config{Subject: schema.Subject{Salary: 1000}}
	assert.Equal(t, schema.AveragePolicy, AssessViolations(cfg, violations).Policy)

	cfg.RiskPolicy = schema.CumulativePolicy
	profile := AssessViolations(cfg, violations)
	assert.Equal(t, schema.CumulativePolicy, profile.Policy)
	assert.InDelta(t, 1.0, profile.TotalSeverity, 1e-9)
}

func TestExecuteRiskPublishes(t *testing.T) {
	sink := &recordingSink{}
	useFakes(t, &fakeAnalyzer{}, sink)

	path := writeFile(t, t.TempDir(), "violations.json", violationsDoc)
	cfg := testConfig(t, path)
	cfg.Publish = true
	cfg.Subject = schema.Subject{EmployeeID: "E-7", Name: "Sam Ortiz", Salary: 50000}

	require.NoError(t, ExecuteRisk(WithSuppressHeader(context.Background()), cfg, nil))

	content, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	var profile schema.RiskProfile
	require.NoError(t, json.Unmarshal(content, &profile))
	assert.Equal(t, 2, profile.TotalViolations)

	require.Len(t, sink.got, 1)
	assert.Equal(t, notify.EmployeeCategory, sink.got[0].Category)
	assert.Equal(t, "E-7", sink.got[0].Key)
	var payload schema.EmployeePayload
	require.NoError(t, json.Unmarshal(sink.got[0].Body, &payload))
	assert.Equal(t, "Sam Ortiz", payload.Name)
}

func TestGetIssueAnalysis(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	useFakes(t, analyzer, &recordingSink{})
	ctx := WithSuppressHeader(context.Background())

	_, err := GetIssueAnalysis(ctx, testConfig(t))
	assert.ErrorIs(t, err, ErrNoIssueDescription)

	obs := writeFile(t, t.TempDir(), "chiller.json", chillerLog)
	cfg := testConfig(t, obs)
	cfg.Facility = "North Plant"
	cfg.IssueLocation = "Mechanical room B"
	cfg.IssueDepartment = "Chiller"
	cfg.IssueDescription = "Chiller 2 keeps short cycling"

	analysis, err := GetIssueAnalysis(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, "Chiller short cycling", analysis.Findings.IssueSummary)

	require.Len(t, analyzer.issues, 1)
	req := analyzer.issues[0]
	assert.Equal(t, "North Plant", req.Facility)
	assert.Equal(t, "Mechanical room B", req.Location)
	assert.Contains(t, req.ObservedConditions, `"suctionPressure":100`)
}

func TestGetIssueAnalysisModelFailure(t *testing.T) {
	useFakes(t, &fakeAnalyzer{err: llm.ErrRateLimited}, &recordingSink{})

	cfg := testConfig(t)
	cfg.IssueDescription = "Boiler alarm"
	_, err := GetIssueAnalysis(WithSuppressHeader(context.Background()), cfg)
	require.ErrorIs(t, err, llm.ErrRateLimited)
	assert.Contains(t, err.Error(), "issue analysis failed")
}

func TestExecuteIssuePublishes(t *testing.T) {
	sink := &recordingSink{}
	useFakes(t, &fakeAnalyzer{}, sink)

	cfg := testConfig(t)
	cfg.Publish = true
	cfg.Facility = "North Plant"
	cfg.IssueDescription = "Boiler alarm"
	require.NoError(t, ExecuteIssue(WithSuppressHeader(context.Background()), cfg, nil))

	require.Len(t, sink.got, 1)
	assert.Equal(t, notify.FacilityCategory, sink.got[0].Category)
	var payload schema.IssuePayload
	require.NoError(t, json.Unmarshal(sink.got[0].Body, &payload))
	assert.Equal(t, "Boiler alarm", payload.Description)
	assert.Equal(t, schema.LLMIssuePayload, payload.AIAnalysis.Kind)
	assert.Equal(t, payload.ReportID, sink.got[0].Key)
}

func TestExecuteRulesAndCatalog(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig(t)
	require.NoError(t, ExecuteRules(ctx, cfg, nil))
	content, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(content, &doc))
	assert.InDelta(t, 1, doc["version"], 0)

	cfg = testConfig(t)
	cfg.Output = schema.CSVOut
	cfg.OutputFile = filepath.Join(t.TempDir(), "catalog.csv")
	require.NoError(t, ExecuteCatalog(ctx, cfg, nil))
	content, err = os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Unauthorized Equipment Use,,0.06,,Equipment,,")
}

func TestGetRiskHistory(t *testing.T) {
	records := []schema.RiskProfileRecord{
		{RunID: 2, SubjectID: "E-42", RiskCategory: "Good Standing", AverageSeverity: 0.08},
		{RunID: 5, SubjectID: "E-42", RiskCategory: "High Risk", AverageSeverity: 0.7},
	}
	store := &iocache.MockAuditStore{}
	store.On("GetRiskProfiles", "E-42").Return(records, nil)
	store.On("GetRiskProfiles", "E-404").Return(nil, nil)
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetAuditStore").Return(store)

	got, err := GetRiskHistory(mgr, "E-42")
	require.NoError(t, err)
	assert.Equal(t, records, got)

	_, err = GetRiskHistory(mgr, "E-404")
	assert.ErrorIs(t, err, ErrSubjectNotFound)
	assert.ErrorContains(t, err, `"E-404"`)

	disabled := &iocache.MockCacheManager{}
	disabled.On("GetAuditStore").Return(nil)
	_, err = GetRiskHistory(disabled, "E-42")
	assert.ErrorIs(t, err, ErrHistoryDisabled)
	_, err = GetRiskHistory(nil, "E-42")
	assert.ErrorIs(t, err, ErrHistoryDisabled)
}

func TestExecuteRiskHistory(t *testing.T) {
	store := &iocache.MockAuditStore{}
	store.On("GetRiskProfiles", "E-42").Return([]schema.RiskProfileRecord{
		{RunID: 5, SubjectID: "E-42", SubjectName: "Avery Cole", RiskCategory: "High Risk", RiskCostImpact: 42000},
	}, nil)
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetAuditStore").Return(store)

	cfg := testConfig(t, "E-42")
	require.NoError(t, ExecuteRiskHistory(context.Background(), cfg, mgr))

	content, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(content, &doc))
	assert.Equal(t, "E-42", doc["employeeId"])
	assert.Contains(t, string(content), `"risk_cost_impact": 42000`)

	cfg.Inputs = nil
	assert.Error(t, ExecuteRiskHistory(context.Background(), cfg, mgr))
}
