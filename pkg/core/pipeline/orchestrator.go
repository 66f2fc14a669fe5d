package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"deal_diligence/pkg/core/calc"
	"deal_diligence/pkg/core/classify"
	"deal_diligence/pkg/core/extract"
	"deal_diligence/pkg/core/ingest"
	"deal_diligence/pkg/core/insights"
	"deal_diligence/pkg/core/logger"
	"deal_diligence/pkg/core/risk"
	"deal_diligence/pkg/core/store"
	"deal_diligence/pkg/core/synthesis"
	"deal_diligence/pkg/core/validate"
	"deal_diligence/pkg/core/valuation"
	"deal_diligence/pkg/models"
)

// ErrNoUsableData means no document yielded any income statement figure.
var ErrNoUsableData = errors.New("pipeline: no usable financial data extracted from documents")

// ErrInsightTimeout is reported when the insight call misses its deadline.
var ErrInsightTimeout = errors.New("pipeline: insight generation timed out")

// DefaultInsightTimeout bounds the single external call of a run.
const DefaultInsightTimeout = 90 * time.Second

// Capabilities lists the optional stages this process can run. It is
// resolved once at bootstrap from configuration.
type Capabilities struct {
	HasClassifier      bool
	HasAIExtraction    bool
	HasAnomalyDetector bool
	HasMultivariate    bool
	HasInsights        bool
}

// InsightGenerator produces the partner memo from the computed results.
type InsightGenerator interface {
	Generate(ctx context.Context, in insights.Input) (*insights.Insights, error)
}

// Deps are the collaborators of an Orchestrator. Classifier and Insights may
// be nil; their stages are then skipped regardless of Capabilities.
type Deps struct {
	Store          store.Repository
	Parser         ingest.TextExtractor
	Extractor      extract.Extractor
	Classifier     classify.Classifier
	Insights       InsightGenerator
	Capabilities   Capabilities
	Assumptions    valuation.Assumptions
	InsightTimeout time.Duration
	Validation     validate.Config
}

// Orchestrator manages the per-deal flow:
// parse -> classify -> extract -> merge -> calculations -> insights.
type Orchestrator struct {
	repo           store.Repository
	parser         ingest.TextExtractor
	extractor      extract.Extractor
	classifier     classify.Classifier
	insights       InsightGenerator
	zipper         *synthesis.ZipperEngine
	caps           Capabilities
	assumptions    valuation.Assumptions
	insightTimeout time.Duration
	validation     validate.Config
}

// NewOrchestrator wires the collaborators. Zero values select the defaults:
// DefaultInsightTimeout, the local parser and extractor, and the default
// DCF assumptions and validation tolerances.
func NewOrchestrator(d Deps) *Orchestrator {
	o := &Orchestrator{
		repo:           d.Store,
		parser:         d.Parser,
		extractor:      d.Extractor,
		classifier:     d.Classifier,
		insights:       d.Insights,
		zipper:         synthesis.NewZipperEngine(),
		caps:           d.Capabilities,
		assumptions:    d.Assumptions,
		insightTimeout: d.InsightTimeout,
		validation:     d.Validation,
	}
	if o.insightTimeout <= 0 {
		o.insightTimeout = DefaultInsightTimeout
	}
	if o.assumptions == (valuation.Assumptions{}) {
		o.assumptions = valuation.DefaultAssumptions()
	}
	if o.validation == (validate.Config{}) {
		o.validation = validate.DefaultConfig()
	}
	if o.parser == nil {
		o.parser = ingest.NewParser()
	}
	if o.extractor == nil {
		o.extractor = extract.LocalExtractor{}
	}
	return o
}

// Capabilities reports what this orchestrator was built with.
func (o *Orchestrator) Capabilities() Capabilities { return o.caps }

// RunAnalysis runs the whole pipeline for one deal. Failures are recorded on
// the deal and its analysis records, never returned.
func (o *Orchestrator) RunAnalysis(ctx context.Context, dealID int64) {
	if err := o.Run(ctx, dealID); err != nil {
		logger.Deal(dealID).WithError(err).Error("analysis run failed")
	}
}

// Run is RunAnalysis with the terminal error exposed.
func (o *Orchestrator) Run(ctx context.Context, dealID int64) error {
	start := time.Now()
	log := logger.Deal(dealID)

	sess, err := o.repo.Open(ctx)
	if err != nil {
		return fmt.Errorf("failed to open store session: %w", err)
	}
	defer sess.Close()

	j := &job{o: o, ctx: ctx, sess: sess, dealID: dealID, log: log}
	if err := j.run(); err != nil {
		// A cancelled run is left in analyzing so the sweeper picks it up.
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			if serr := sess.SetDealStatus(context.WithoutCancel(ctx), dealID, models.DealFailed); serr != nil && !errors.Is(serr, store.ErrNotFound) {
				log.WithError(serr).Error("failed to mark deal failed")
			}
		}
		return err
	}

	log.WithField("elapsed", time.Since(start).Round(time.Millisecond)).Info("analysis pipeline completed")
	return nil
}

// =============================================================================
// JOB
// =============================================================================

// job holds the state of one run. err is sticky: the first persistence
// failure stops the run at the next stage boundary.
type job struct {
	o      *Orchestrator
	ctx    context.Context
	sess   store.Session
	dealID int64
	log    *logrus.Entry
	err    error
}

func (j *job) run() error {
	deal, err := j.sess.LoadDeal(j.ctx, j.dealID)
	if err != nil {
		return err
	}
	if err := j.sess.SetDealStatus(j.ctx, j.dealID, models.DealAnalyzing); err != nil {
		return err
	}
	j.log.WithFields(logrus.Fields{"deal": deal.Name, "documents": len(deal.Documents)}).Info("analysis pipeline started")

	if err := j.parseDocuments(deal); err != nil {
		return err
	}
	if err := j.classifyDocuments(deal); err != nil {
		return err
	}
	statements, err := j.extractDocuments(deal)
	if err != nil {
		return err
	}

	merged := j.merge(statements)
	if !merged.HasIncomeData() {
		j.log.Warn("no usable financial data, stopping")
		return ErrNoUsableData
	}
	j.validate(merged)

	// --- Calculation stages; a failure never blocks the next one ---
	qoe, qoeOK := runStage(j, models.AnalysisQoE, func() (calc.QoEResult, error) {
		return calc.AnalyzeQoE(merged), nil
	})
	wc, wcOK := runStage(j, models.AnalysisWorkingCapital, func() (calc.WorkingCapitalResult, error) {
		return calc.AnalyzeWorkingCapital(merged), nil
	})
	ratios, ratiosOK := runStage(j, models.AnalysisRatios, func() (calc.RatioResult, error) {
		return calc.CalculateRatios(merged), nil
	})
	dcf, dcfOK := runStage(j, models.AnalysisDCF, func() (valuation.DCFResult, error) {
		return valuation.CalculateDCF(merged, j.o.assumptions)
	})
	flags, _ := runStage(j, models.AnalysisRedFlags, func() (risk.RedFlags, error) {
		return risk.DetectRedFlags(merged, ptrIf(&ratios, ratiosOK), ptrIf(&wc, wcOK), ptrIf(&qoe, qoeOK)), nil
	})
	anomalies, _ := runStage(j, models.AnalysisAnomalies, func() (risk.Anomalies, error) {
		if !j.o.caps.HasAnomalyDetector {
			return risk.Anomalies{}, nil
		}
		return risk.NewAnomalyDetector(j.o.caps.HasMultivariate).Detect(merged, ptrIf(&ratios, ratiosOK)), nil
	})
	if j.err != nil {
		return j.err
	}

	j.insightStage(insights.Input{
		Statement: merged,
		QoE:       ptrIf(&qoe, qoeOK),
		Ratios:    ptrIf(&ratios, ratiosOK),
		DCF:       ptrIf(&dcf, dcfOK),
		RedFlags:  flags,
		Anomalies: anomalies,
	})
	if j.err != nil {
		return j.err
	}

	return j.sess.SetDealStatus(j.ctx, j.dealID, models.DealCompleted)
}

// parseDocuments decodes every document that has no text yet.
func (j *job) parseDocuments(deal *models.Deal) error {
	for i := range deal.Documents {
		doc := &deal.Documents[i]
		if doc.ExtractedText != "" || doc.FilePath == "" {
			continue
		}
		doc.ExtractedText = j.o.parser.ExtractText(doc.FilePath, doc.FileType)
		j.log.WithFields(logrus.Fields{"document": doc.Filename, "chars": len(doc.ExtractedText)}).Debug("document parsed")
		if err := j.sess.SaveDocumentText(j.ctx, doc.ID, doc.ExtractedText); err != nil {
			return err
		}
	}
	return nil
}

func (j *job) classifyDocuments(deal *models.Deal) error {
	if !j.o.caps.HasClassifier || j.o.classifier == nil {
		return nil
	}
	for i := range deal.Documents {
		doc := &deal.Documents[i]
		if doc.DocType != "" || doc.ExtractedText == "" {
			continue
		}
		doc.DocType, doc.DocTypeConfidence = j.o.classifier.Classify(doc.ExtractedText, doc.Filename)
		j.log.WithFields(logrus.Fields{"document": doc.Filename, "doc_type": doc.DocType, "confidence": doc.DocTypeConfidence}).Info("document classified")
		if err := j.sess.SaveDocumentClassification(j.ctx, doc.ID, doc.DocType, doc.DocTypeConfidence); err != nil {
			return err
		}
	}
	return nil
}

// extractDocuments returns one statement per document with data, in upload
// order. Stored extractions are reused as-is.
func (j *job) extractDocuments(deal *models.Deal) ([]*models.Statement, error) {
	var out []*models.Statement
	for i := range deal.Documents {
		doc := &deal.Documents[i]
		if doc.FinancialData != nil {
			j.log.WithField("document", doc.Filename).Debug("reusing stored extraction")
			out = append(out, doc.FinancialData)
			continue
		}
		if doc.ExtractedText == "" {
			continue
		}

		stmt, err := j.o.extractor.Extract(j.ctx, doc.ExtractedText, doc.Filename)
		if err != nil {
			return nil, fmt.Errorf("extraction of %s aborted: %w", doc.Filename, err)
		}
		if stmt == nil {
			j.log.WithField("document", doc.Filename).Warn("document produced no statement")
			continue
		}
		if err := j.sess.SaveDocumentExtraction(j.ctx, doc.ID, stmt); err != nil {
			return nil, err
		}
		doc.FinancialData = stmt
		out = append(out, stmt)
	}
	return out, nil
}

func (j *job) merge(statements []*models.Statement) *models.Statement {
	res := j.o.zipper.Stitch(statements)
	for _, c := range res.Conflicts {
		j.log.WithFields(logrus.Fields{
			"field":     c.Section + "." + c.Field,
			"kept":      c.KeptValue,
			"discarded": c.Discarded,
			"delta_pct": c.DeltaPercent,
			"kept_doc":  c.KeptSource,
			"lost_doc":  c.DiscardedSrc,
		}).Warn("merge conflict: later document disagrees")
	}
	j.log.WithFields(logrus.Fields{
		"sources":      len(statements),
		"conflicts":    len(res.Conflicts),
		"completeness": res.Completeness,
	}).Info("statements merged")
	return res.Statement
}

// validate logs accounting tie-outs of the merged statement.
func (j *job) validate(s *models.Statement) {
	for _, c := range validate.CheckStatement(s, j.o.validation) {
		entry := j.log.WithFields(logrus.Fields{
			"check":    c.Label,
			"computed": c.Computed,
			"reported": c.Reported,
			"diff_pct": c.DiffPercent,
		})
		switch {
		case c.Passed:
			entry.Debug("integrity check passed")
		case j.o.validation.EnableStrictValidation:
			entry.Errorf("CRITICAL: %s mismatch > %.2f%% tolerance", c.Label, c.Tolerance)
		default:
			entry.Warnf("%s mismatch > %.2f%% tolerance", c.Label, c.Tolerance)
		}
	}
}

// =============================================================================
// STAGE RUNNER
// =============================================================================

// runStage records typ as running, computes it and records the outcome. A
// compute error or panic marks the record failed and returns ok=false.
func runStage[T models.Result](j *job, typ models.AnalysisType, compute func() (T, error)) (res T, ok bool) {
	if j.err != nil {
		return res, false
	}
	log := j.log.WithField("stage", typ)
	j.record(typ, models.AnalysisRunning, nil, "")

	res, err := safely(compute)
	if err == nil {
		var raw json.RawMessage
		if raw, err = models.EncodeResult(res); err == nil {
			j.record(typ, models.AnalysisCompleted, raw, "")
			log.Debug("stage completed")
			return res, j.err == nil
		}
	}

	log.WithError(err).Error("stage failed")
	j.record(typ, models.AnalysisFailed, nil, err.Error())
	var zero T
	return zero, false
}

func safely[T any](fn func() (T, error)) (res T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// record upserts one analysis record. Errors stick to the job.
func (j *job) record(typ models.AnalysisType, status models.AnalysisStatus, raw json.RawMessage, msg string) {
	if j.err != nil {
		return
	}
	rec := &models.AnalysisRecord{
		DealID:       j.dealID,
		Type:         typ,
		Status:       status,
		Result:       raw,
		ErrorMessage: msg,
	}
	if status == models.AnalysisCompleted || status == models.AnalysisFailed {
		done := time.Now().UTC()
		rec.CompletedAt = &done
	}
	if err := j.sess.UpsertAnalysis(j.ctx, rec); err != nil {
		j.err = err
	}
}

func ptrIf[T any](v *T, ok bool) *T {
	if !ok {
		return nil
	}
	return v
}

// =============================================================================
// INSIGHTS
// =============================================================================

// insightStage always ends completed. A disabled generator, an error or a
// missed deadline stores a null result.
func (j *job) insightStage(in insights.Input) {
	typ := models.AnalysisAIInsights
	log := j.log.WithField("stage", typ)
	j.record(typ, models.AnalysisRunning, nil, "")

	var raw json.RawMessage
	if !j.o.caps.HasInsights || j.o.insights == nil {
		log.Info("insight generation unavailable, storing empty result")
	} else if memo, err := j.o.generateInsights(j.ctx, in); err != nil {
		log.WithError(err).Warn("insight generation failed, storing empty result")
	} else if raw, err = models.EncodeResult(memo); err != nil {
		log.WithError(err).Warn("insight encoding failed, storing empty result")
		raw = nil
	}
	j.record(typ, models.AnalysisCompleted, raw, "")
}

type insightReply struct {
	memo *insights.Insights
	err  error
}

// generateInsights runs the generator on a single-slot worker and waits at
// most insightTimeout. The reply channel is buffered so an abandoned call can
// still finish and exit.
func (o *Orchestrator) generateInsights(ctx context.Context, in insights.Input) (*insights.Insights, error) {
	ctx, cancel := context.WithTimeout(ctx, o.insightTimeout)
	defer cancel()

	reply := make(chan insightReply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				reply <- insightReply{err: fmt.Errorf("insight generator panic: %v", r)}
			}
		}()
		memo, err := o.insights.Generate(ctx, in)
		reply <- insightReply{memo: memo, err: err}
	}()

	select {
	case r := <-reply:
		if r.err == nil && r.memo == nil {
			return nil, insights.ErrEmptyInsights
		}
		return r.memo, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w after %s", ErrInsightTimeout, o.insightTimeout)
	}
}
