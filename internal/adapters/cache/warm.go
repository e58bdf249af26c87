package cache

// warm.go — precarga concurrente de todas las claves al arrancar el servidor.
//
// Cada clave (2 horizontes de estadísticas + 6 backtests) es una tarea del pool.
// Un dato malformado se devuelve como error para que el arranque falle pronto.
// Una clave sin datos solo se registra.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alejandrodnm/riskfolio/internal/domain"
)

// WarmResult resume una precarga.
type WarmResult struct {
	Loaded      int
	Unavailable int
}

type warmTask struct {
	stats   bool
	risk    domain.RiskProfile
	horizon domain.Horizon
}

func (t warmTask) String() string {
	if t.stats {
		return "stats/" + string(t.horizon)
	}
	return "backtest/" + string(t.risk) + "/" + string(t.horizon)
}

// Warm carga todas las claves conocidas usando un pool de workers.
// Si workers <= 0 usa un worker por tarea.
func (c *Source) Warm(ctx context.Context, workers int) (WarmResult, error) {
	var tasks []warmTask
	for _, h := range domain.Horizons() {
		tasks = append(tasks, warmTask{stats: true, horizon: h})
	}
	for _, r := range domain.RiskProfiles() {
		for _, h := range domain.Horizons() {
			tasks = append(tasks, warmTask{risk: r, horizon: h})
		}
	}
	if workers <= 0 || workers > len(tasks) {
		workers = len(tasks)
	}

	type result struct {
		task  warmTask
		empty bool
		err   error
	}

	workCh := make(chan warmTask, len(tasks))
	resultCh := make(chan result, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range workCh {
				var (
					empty bool
					err   error
				)
				if t.stats {
					var st map[string]domain.AssetStat
					st, err = c.LoadStats(ctx, t.horizon)
					empty = len(st) == 0
				} else {
					var s domain.BacktestSeries
					s, err = c.LoadBacktest(ctx, t.risk, t.horizon)
					empty = s.Empty()
				}
				resultCh <- result{task: t, empty: empty, err: err}
			}
		}()
	}

	for _, t := range tasks {
		workCh <- t
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var (
		res  WarmResult
		errs []error
	)
	for r := range resultCh {
		switch {
		case r.err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", r.task, r.err))
		case r.empty:
			res.Unavailable++
			slog.Debug("warm: no data", "key", r.task.String())
		default:
			res.Loaded++
		}
	}

	slog.Info("cache warmed", "loaded", res.Loaded, "unavailable", res.Unavailable, "errors", len(errs))
	if len(errs) > 0 {
		return res, fmt.Errorf("cache.Warm: %w", errors.Join(errs...))
	}
	return res, nil
}
