package ranking

import (
	"context"
	"errors"
	"math/rand"
	"slices"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/dinewise/internal/domain"
	"github.com/kailas-cloud/dinewise/internal/domain/candidate"
	"github.com/kailas-cloud/dinewise/internal/domain/geo"
	domrank "github.com/kailas-cloud/dinewise/internal/domain/ranking"
	"github.com/kailas-cloud/dinewise/internal/domain/score"
	"github.com/kailas-cloud/dinewise/internal/domain/search/filter"
	"github.com/kailas-cloud/dinewise/internal/domain/search/request"
)

var origin = geo.Point{Lat: 40.7128, Lng: -74.0060}

type entry struct {
	id       string
	score    float64
	rating   float64
	dist     float64
	price    int
	cuisine  string
	excluded bool
}

func scored(e entry) score.Scored {
	s := score.Scored{
		Candidate: candidate.Candidate{
			ID:         e.id,
			Name:       e.id,
			Rating:     e.rating,
			PriceLevel: e.price,
			Cuisines:   []string{e.cuisine},
		},
		Score:          e.score,
		DistanceMeters: e.dist,
		Safety:         score.Passed,
	}
	if e.excluded {
		s.Score = 0
		s.Safety = score.Safety{Verdict: score.VerdictExcluded, Reason: score.ReasonAllergenUnverified, Subject: "peanut"}
	}
	return s
}

func batchOf(entries ...entry) Batch {
	out := Batch{Source: domrank.SourceLive, CacheKey: "dinewise:cand:test"}
	for _, e := range entries {
		out.Scored = append(out.Scored, scored(e))
	}
	return out
}

func newRequest(t *testing.T, radius int, f filter.Raw, c request.Context) request.Request {
	t.Helper()
	req, err := request.New("u1", origin, radius, f, c, "")
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return req
}

func newAggregator(t *testing.T, cfg Config, opts ...Option) *Aggregator {
	t.Helper()
	a, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

// failingRefetcher fails the test if radius relaxation is attempted.
func failingRefetcher(t *testing.T) Refetcher {
	return RefetchFunc(func(context.Context, int) (Batch, error) {
		t.Error("unexpected refetch")
		return Batch{}, errors.New("unexpected")
	})
}

func ids(items []domrank.Item) []string {
	out := make([]string, len(items))
	for i := range items {
		out[i] = items[i].Candidate.ID
	}
	return out
}

func TestRank_ScenarioC_RelaxCuisineThenPrice(t *testing.T) {
	f, err := filter.New([]string{"thai"}, 1, false)
	if err != nil {
		t.Fatal(err)
	}
	req := newRequest(t, 1000, f, request.Context{})
	b := batchOf(
		entry{id: "t1", score: 0.6, rating: 4, dist: 100, price: 1, cuisine: "thai"},
		entry{id: "t2", score: 0.7, rating: 4, dist: 200, price: 3, cuisine: "thai"},
		entry{id: "i1", score: 0.5, rating: 4, dist: 300, price: 1, cuisine: "italian"},
		entry{id: "i2", score: 0.8, rating: 4, dist: 400, price: 3, cuisine: "italian"},
		entry{id: "i3", score: 0.4, rating: 4, dist: 500, price: 4, cuisine: "italian"},
	)

	res, err := newAggregator(t, Config{}).Rank(context.Background(), req, b, failingRefetcher(t))
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if !slices.Equal(res.Relaxations, []filter.Kind{filter.Cuisine, filter.Price}) {
		t.Errorf("relaxations = %v", res.Relaxations)
	}
	if !res.Degraded {
		t.Error("expected degraded")
	}
	if got := ids(res.Items); !slices.Equal(got, []string{"i2", "t2", "t1"}) {
		t.Errorf("items = %v", got)
	}
	for i, it := range res.Items {
		if it.Rank != i+1 {
			t.Errorf("item %d rank = %d", i, it.Rank)
		}
	}
}

func TestRank_CuisineRelaxationSuffices(t *testing.T) {
	f, _ := filter.New([]string{"thai"}, 2, false)
	req := newRequest(t, 1000, f, request.Context{})
	b := batchOf(
		entry{id: "t1", score: 0.6, dist: 100, price: 1, cuisine: "thai"},
		entry{id: "i1", score: 0.5, dist: 100, price: 1, cuisine: "italian"},
		entry{id: "i2", score: 0.5, dist: 100, price: 2, cuisine: "italian"},
		entry{id: "i3", score: 0.9, dist: 100, price: 4, cuisine: "italian"},
	)

	res, err := newAggregator(t, Config{}).Rank(context.Background(), req, b, failingRefetcher(t))
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(res.Relaxations, []filter.Kind{filter.Cuisine}) {
		t.Errorf("relaxations = %v", res.Relaxations)
	}
	for _, it := range res.Items {
		if it.Candidate.ID == "i3" {
			t.Error("price filter must still hold after cuisine relaxation")
		}
	}
}

func TestRank_NoRelaxationWhenEnough(t *testing.T) {
	req := newRequest(t, 1000, filter.None, request.Context{})
	b := batchOf(
		entry{id: "a", score: 0.9, dist: 100, price: 1, cuisine: "thai"},
		entry{id: "b", score: 0.8, dist: 100, price: 1, cuisine: "thai"},
		entry{id: "c", score: 0.7, dist: 100, price: 1, cuisine: "thai"},
		entry{id: "d", score: 0.6, dist: 100, price: 1, cuisine: "thai"},
	)

	res, err := newAggregator(t, Config{}).Rank(context.Background(), req, b, failingRefetcher(t))
	if err != nil {
		t.Fatal(err)
	}
	if res.Degraded || res.Relaxed() {
		t.Errorf("degraded=%v relaxations=%v", res.Degraded, res.Relaxations)
	}
	if got := ids(res.Items); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("items = %v", got)
	}
	if res.Source != domrank.SourceLive || res.CacheKey != "dinewise:cand:test" || res.RadiusMeters != 1000 {
		t.Errorf("result meta = %+v", res)
	}
}

func TestRank_SafetyExcludedNeverReturned(t *testing.T) {
	f, _ := filter.New([]string{"thai"}, 1, true)
	req := newRequest(t, 1000, f, request.Context{Mood: request.MoodTreat})
	b := batchOf(
		entry{id: "unsafe1", rating: 5, dist: 10, price: 4, cuisine: "thai", excluded: true},
		entry{id: "safe", score: 0.3, rating: 3, dist: 900, price: 2, cuisine: "greek"},
		entry{id: "unsafe2", rating: 5, dist: 10, price: 1, cuisine: "thai", excluded: true},
	)
	wider := RefetchFunc(func(_ context.Context, radius int) (Batch, error) {
		nb := batchOf(
			entry{id: "unsafe3", rating: 5, dist: 10, price: 1, cuisine: "thai", excluded: true},
			entry{id: "safe", score: 0.3, rating: 3, dist: 900, price: 2, cuisine: "greek"},
		)
		nb.RadiusMeters = radius
		return nb, nil
	})

	res, err := newAggregator(t, Config{}).Rank(context.Background(), req, b, wider)
	if err != nil {
		t.Fatal(err)
	}
	for _, it := range res.Items {
		if it.Excluded() {
			t.Errorf("excluded candidate %s in result", it.Candidate.ID)
		}
	}
	if res.Excluded != 1 {
		t.Errorf("excluded count = %d, want 1 (last batch)", res.Excluded)
	}
}

func TestRank_OpenNowNeverRelaxed(t *testing.T) {
	f, _ := filter.New(nil, -1, true)
	req := newRequest(t, 1000, f, request.Context{})
	open, closed := true, false
	b := batchOf(
		entry{id: "open", score: 0.5, dist: 100, price: 1, cuisine: "thai"},
		entry{id: "closed", score: 0.9, dist: 100, price: 1, cuisine: "thai"},
		entry{id: "unknown", score: 0.9, dist: 100, price: 1, cuisine: "thai"},
	)
	b.Scored[0].Candidate.OpenNow = &open
	b.Scored[1].Candidate.OpenNow = &closed

	res, err := newAggregator(t, Config{}).Rank(context.Background(), req, b, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(res.Items); !slices.Equal(got, []string{"open"}) {
		t.Errorf("items = %v", got)
	}
	if res.Relaxed() {
		t.Errorf("relaxations = %v", res.Relaxations)
	}
}

func TestRank_RadiusRelaxation(t *testing.T) {
	req := newRequest(t, 1000, filter.None, request.Context{})
	b := batchOf(entry{id: "near", score: 0.5, dist: 200, price: 1, cuisine: "thai"})

	var calls []int
	wider := RefetchFunc(func(_ context.Context, radius int) (Batch, error) {
		calls = append(calls, radius)
		nb := batchOf(
			entry{id: "near", score: 0.5, dist: 200, price: 1, cuisine: "thai"},
			entry{id: "far1", score: 0.6, dist: 1500, price: 1, cuisine: "thai"},
			entry{id: "far2", score: 0.4, dist: 1800, price: 1, cuisine: "thai"},
		)
		nb.RadiusMeters = radius
		nb.Stale = true
		nb.Source = domrank.SourceStale
		return nb, nil
	})

	res, err := newAggregator(t, Config{}).Rank(context.Background(), req, b, wider)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(calls, []int{2000}) {
		t.Errorf("refetch radii = %v", calls)
	}
	if !slices.Equal(res.Relaxations, []filter.Kind{filter.Radius}) {
		t.Errorf("relaxations = %v", res.Relaxations)
	}
	if res.RadiusMeters != 2000 || !res.Stale || !res.Degraded || res.Source != domrank.SourceStale {
		t.Errorf("result meta = %+v", res)
	}
	if got := ids(res.Items); !slices.Equal(got, []string{"far1", "near", "far2"}) {
		t.Errorf("items = %v", got)
	}
}

func TestRank_RadiusCappedAndStepLimited(t *testing.T) {
	req := newRequest(t, 20000, filter.None, request.Context{})
	b := batchOf(entry{id: "only", score: 0.5, dist: 200, price: 1, cuisine: "thai"})

	var calls []int
	wider := RefetchFunc(func(_ context.Context, radius int) (Batch, error) {
		calls = append(calls, radius)
		nb := batchOf(entry{id: "only", score: 0.5, dist: 200, price: 1, cuisine: "thai"})
		nb.RadiusMeters = radius
		return nb, nil
	})

	res, err := newAggregator(t, Config{}).Rank(context.Background(), req, b, wider)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(calls, []int{40000, 50000}) {
		t.Errorf("refetch radii = %v", calls)
	}
	if res.RadiusMeters != request.MaxRadius {
		t.Errorf("radius = %d", res.RadiusMeters)
	}
	if len(res.Items) != 1 || !res.Degraded {
		t.Errorf("items=%d degraded=%v", len(res.Items), res.Degraded)
	}
}

func TestRank_RefetchFailureStopsRelaxing(t *testing.T) {
	req := newRequest(t, 1000, filter.None, request.Context{})
	b := batchOf(entry{id: "only", score: 0.5, dist: 200, price: 1, cuisine: "thai"})
	fail := RefetchFunc(func(context.Context, int) (Batch, error) {
		return Batch{}, domain.ErrQuotaExceeded
	})

	res, err := newAggregator(t, Config{}).Rank(context.Background(), req, b, fail)
	if err != nil {
		t.Fatalf("refetch failure must not fail ranking: %v", err)
	}
	if res.Relaxed() || res.Degraded {
		t.Errorf("relaxations=%v degraded=%v", res.Relaxations, res.Degraded)
	}
	if len(res.Items) != 1 || res.RadiusMeters != 1000 {
		t.Errorf("items=%d radius=%d", len(res.Items), res.RadiusMeters)
	}
}

func TestRank_SupersededAborts(t *testing.T) {
	req := newRequest(t, 1000, filter.None, request.Context{})
	b := batchOf(entry{id: "only", score: 0.5, dist: 200, price: 1, cuisine: "thai"})
	superseded := RefetchFunc(func(context.Context, int) (Batch, error) {
		return Batch{}, domain.ErrSuperseded
	})

	_, err := newAggregator(t, Config{}).Rank(context.Background(), req, b, superseded)
	if !errors.Is(err, domain.ErrSuperseded) {
		t.Errorf("err = %v, want ErrSuperseded", err)
	}
}

func TestRank_DistanceBeyondRadiusDropped(t *testing.T) {
	req := newRequest(t, 500, filter.None, request.Context{})
	b := batchOf(
		entry{id: "in", score: 0.5, dist: 499, price: 1, cuisine: "thai"},
		entry{id: "out", score: 0.9, dist: 700, price: 1, cuisine: "thai"},
	)

	res, err := newAggregator(t, Config{}).Rank(context.Background(), req, b, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(res.Items); !slices.Equal(got, []string{"in"}) {
		t.Errorf("items = %v", got)
	}
}

func TestRank_TieBreakDeterministic(t *testing.T) {
	req := newRequest(t, 1000, filter.None, request.Context{})
	entries := []entry{
		{id: "b", score: 0.7, rating: 4.5, dist: 300, price: 1, cuisine: "thai"},
		{id: "a", score: 0.7, rating: 4.5, dist: 300, price: 1, cuisine: "thai"},
		{id: "c", score: 0.7, rating: 4.5, dist: 100, price: 1, cuisine: "thai"},
		{id: "d", score: 0.7, rating: 4.9, dist: 900, price: 1, cuisine: "thai"},
		{id: "e", score: 0.2, rating: 5, dist: 10, price: 1, cuisine: "thai"},
	}
	agg := newAggregator(t, Config{TopN: 5})
	want := []string{"d", "c", "a", "b", "e"}

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		rng.Shuffle(len(entries), func(x, y int) { entries[x], entries[y] = entries[y], entries[x] })
		res, err := agg.Rank(context.Background(), req, batchOf(entries...), nil)
		if err != nil {
			t.Fatal(err)
		}
		if got := ids(res.Items); !slices.Equal(got, want) {
			t.Fatalf("run %d: items = %v, want %v", i, got, want)
		}
	}
}

func TestRank_LateNightPrefersOpen(t *testing.T) {
	req := newRequest(t, 1000, filter.None, request.Context{TimeOfDay: request.LateNight})
	open, closed := true, false
	b := batchOf(
		entry{id: "closed", score: 0.60, dist: 100, price: 1, cuisine: "thai"},
		entry{id: "open", score: 0.55, dist: 100, price: 1, cuisine: "thai"},
		entry{id: "unknown", score: 0.58, dist: 100, price: 1, cuisine: "thai"},
	)
	b.Scored[0].Candidate.OpenNow = &closed
	b.Scored[1].Candidate.OpenNow = &open

	res, err := newAggregator(t, Config{}).Rank(context.Background(), req, b, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Strategy != domrank.StrategyLateNight {
		t.Errorf("strategy = %s", res.Strategy)
	}
	if got := ids(res.Items); !slices.Equal(got, []string{"open", "unknown", "closed"}) {
		t.Errorf("items = %v", got)
	}
	if res.Items[0].ContextAdjustment != domrank.MaxAdjustment {
		t.Errorf("open adjustment = %f", res.Items[0].ContextAdjustment)
	}
}

func TestRank_BudgetImpact(t *testing.T) {
	req := newRequest(t, 1000, filter.None, request.Context{}).WithRemainingBudget(50)
	b := batchOf(
		entry{id: "mid", score: 0.9, dist: 100, price: 2, cuisine: "thai"},
		entry{id: "lux", score: 0.8, dist: 100, price: 4, cuisine: "thai"},
		entry{id: "nop", score: 0.7, dist: 100, price: candidate.UnknownPrice, cuisine: "thai"},
	)

	res, err := newAggregator(t, Config{}).Rank(context.Background(), req, b, nil)
	if err != nil {
		t.Fatal(err)
	}
	mid, lux, nop := res.Items[0].BudgetImpact, res.Items[1].BudgetImpact, res.Items[2].BudgetImpact
	if !mid.Known || mid.EstimatedCost != 30 || mid.RemainingAfter != 20 || mid.Share != 0.6 || mid.Exceeds {
		t.Errorf("mid = %+v", mid)
	}
	if !lux.Known || !lux.Exceeds || lux.RemainingAfter != -50 {
		t.Errorf("lux = %+v", lux)
	}
	if nop.Known || nop.EstimatedCost != 0 {
		t.Errorf("nop = %+v", nop)
	}
}

func TestRank_BudgetUnknown(t *testing.T) {
	req := newRequest(t, 1000, filter.None, request.Context{})
	b := batchOf(entry{id: "mid", score: 0.9, dist: 100, price: 2, cuisine: "thai"})

	res, err := newAggregator(t, Config{}).Rank(context.Background(), req, b, nil)
	if err != nil {
		t.Fatal(err)
	}
	bi := res.Items[0].BudgetImpact
	if bi.Known || bi.EstimatedCost != 30 {
		t.Errorf("impact = %+v", bi)
	}
}

func TestRank_RelaxationMetrics(t *testing.T) {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_relaxations_total"}, []string{"kind"})
	f, _ := filter.New([]string{"thai"}, 1, false)
	req := newRequest(t, 1000, f, request.Context{})
	b := batchOf(entry{id: "i1", score: 0.5, dist: 100, price: 3, cuisine: "italian"})

	_, err := newAggregator(t, Config{}, WithRelaxationMetrics(vec)).Rank(context.Background(), req, b, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v := testutil.ToFloat64(vec.WithLabelValues("cuisine")); v != 1 {
		t.Errorf("cuisine = %f", v)
	}
	if v := testutil.ToFloat64(vec.WithLabelValues("price")); v != 1 {
		t.Errorf("price = %f", v)
	}
	if v := testutil.ToFloat64(vec.WithLabelValues("radius")); v != 0 {
		t.Errorf("radius = %f", v)
	}
}

func TestSelectStrategy(t *testing.T) {
	tests := []struct {
		ctx  request.Context
		want domrank.Strategy
	}{
		{request.Context{}, domrank.StrategyNeutral},
		{request.Context{TimeOfDay: request.Lunch}, domrank.StrategyNeutral},
		{request.Context{TimeOfDay: request.LateNight}, domrank.StrategyLateNight},
		{request.Context{Mood: request.MoodQuickBite}, domrank.StrategyQuickBite},
		{request.Context{Mood: request.MoodTreat, TimeOfDay: request.LateNight}, domrank.StrategyTreat},
		{request.Context{Mood: request.MoodBudgetConscious}, domrank.StrategyBudgetConscious},
	}
	for _, tt := range tests {
		if got := SelectStrategy(tt.ctx); got != tt.want {
			t.Errorf("SelectStrategy(%+v) = %s, want %s", tt.ctx, got, tt.want)
		}
	}
}

func TestAdjustment_Bounded(t *testing.T) {
	strategies := []domrank.Strategy{
		domrank.StrategyNeutral, domrank.StrategyQuickBite, domrank.StrategyTreat,
		domrank.StrategyBudgetConscious, domrank.StrategyLateNight,
	}
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		open := rng.Intn(2) == 0
		s := scored(entry{id: "x", score: rng.Float64(), rating: rng.Float64() * 5, price: rng.Intn(6) - 1})
		s.Candidate.OpenNow = &open
		s.Breakdown.Proximity = rng.Float64()
		impact := domrank.BudgetImpact{Known: true, Exceeds: rng.Intn(2) == 0}
		for _, st := range strategies {
			if adj := Adjustment(st, &s, impact); adj > domrank.MaxAdjustment || adj < -domrank.MaxAdjustment {
				t.Fatalf("%s adjustment %f out of bounds", st, adj)
			}
		}
	}
}

func TestAdjustment_BudgetConscious(t *testing.T) {
	cheap := scored(entry{id: "c", price: 1})
	pricey := scored(entry{id: "p", price: 4})
	if adj := Adjustment(domrank.StrategyBudgetConscious, &cheap, domrank.BudgetImpact{}); adj <= 0 {
		t.Errorf("cheap adjustment = %f", adj)
	}
	over := domrank.BudgetImpact{Known: true, Exceeds: true}
	if adj := Adjustment(domrank.StrategyBudgetConscious, &pricey, over); adj != -domrank.MaxAdjustment {
		t.Errorf("over-budget adjustment = %f", adj)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	if _, err := New(Config{MinResults: 5, TopN: 3}); !errors.Is(err, domain.ErrInvalidConfiguration) {
		t.Errorf("err = %v", err)
	}
	if _, err := New(Config{PriceEstimates: map[int]float64{2: -1}}); !errors.Is(err, domain.ErrInvalidConfiguration) {
		t.Errorf("err = %v", err)
	}
	a := newAggregator(t, Config{})
	if c := a.Config(); c.MinResults != 3 || c.TopN != 3 || c.RadiusGrowth != 2 || c.MaxRadius != request.MaxRadius {
		t.Errorf("defaults = %+v", c)
	}
}
