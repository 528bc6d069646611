package ingest

import (
	"context"
	"os"
	"time"

	"landplot/internal/config"
	"landplot/internal/errkind"
	"landplot/internal/logger"
	"landplot/internal/metrics"
	"landplot/internal/plots"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// Status：单条要素的导入结果
type Status string

const (
	StatusCreated Status = "created"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Result：与输入顺序一一对应
type Result struct {
	Index     int    `json:"index"`
	Name      string `json:"name,omitempty"`
	ID        int64  `json:"id,omitempty"`
	Status    Status `json:"status"`
	ErrorKind string `json:"error_kind,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Report：一次批量导入的汇总
type Report struct {
	BatchID    string    `json:"batch_id"`
	Policy     string    `json:"policy"`
	Total      int       `json:"total"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Results    []Result  `json:"results"`
}

// Creator：导入只依赖单条创建能力
type Creator interface {
	CreatePlot(ctx context.Context, in plots.CreateInput) (plots.View, error)
}

// Importer：顺序导入器
// 约束：一次只处理一条要素，结果按输入顺序记录；PolicyAbort 在首个失败后停止，
// 其余要素标记为 skipped；ctx 结束后剩余要素同样标记为 skipped。
type Importer struct {
	Plots  Creator
	Policy config.ImportPolicy
}

func NewImporter(c Creator, policy config.ImportPolicy) *Importer {
	if policy == "" {
		policy = config.PolicyContinue
	}
	return &Importer{Plots: c, Policy: policy}
}

const progressEvery = 100

func (im *Importer) Import(ctx context.Context, features []Feature) Report {
	l := logger.L()
	rep := Report{
		BatchID:   uuid.NewString(),
		Policy:    string(im.Policy),
		Total:     len(features),
		StartedAt: time.Now().UTC(),
		Results:   make([]Result, 0, len(features)),
	}
	l.Info("import_start", "batch", rep.BatchID, "total", rep.Total, "policy", im.Policy)

	stopped := false
	for i, f := range features {
		res := Result{Index: i, Name: f.Name}
		if !stopped && ctx.Err() != nil {
			l.Warn("import_cancelled", "batch", rep.BatchID, "at", i, "err", ctx.Err())
			stopped = true
		}
		if stopped {
			res.Status = StatusSkipped
			rep.Skipped++
			rep.Results = append(rep.Results, res)
			metrics.ImportFeaturesTotal.WithLabelValues(string(StatusSkipped)).Inc()
			continue
		}

		v, err := im.Plots.CreatePlot(ctx, plots.CreateInput{
			Name:       f.Name,
			Owner:      f.Owner,
			Geometry:   f.Geometry,
			Properties: f.Properties,
		})
		if err != nil {
			res.Status = StatusFailed
			res.ErrorKind = errkind.Of(err)
			res.Reason = string(errkind.ReasonOf(err))
			res.Message = err.Error()
			rep.Failed++
			l.Warn("import_feature_error", "batch", rep.BatchID, "index", i, "name", f.Name, "kind", res.ErrorKind, "err", err)
			if im.Policy == config.PolicyAbort {
				stopped = true
			}
		} else {
			res.Status = StatusCreated
			res.ID = v.ID
			rep.Succeeded++
		}
		rep.Results = append(rep.Results, res)
		metrics.ImportFeaturesTotal.WithLabelValues(string(res.Status)).Inc()
		if (i+1)%progressEvery == 0 {
			l.Info("import_progress", "batch", rep.BatchID, "done", i+1, "total", rep.Total)
		}
	}
	rep.FinishedAt = time.Now().UTC()
	l.Info("import_done", "batch", rep.BatchID, "succeeded", rep.Succeeded, "failed", rep.Failed, "skipped", rep.Skipped)
	return rep
}

// ImportFile：读取本地 GeoJSON 文件并导入；文件不可读或整体无法解析时返回错误
func (im *Importer) ImportFile(ctx context.Context, path string) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{}, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	features, err := ParseFeatureCollection(f)
	if err != nil {
		return Report{}, errors.Wrapf(err, "parse %s", path)
	}
	return im.Import(ctx, features), nil
}
