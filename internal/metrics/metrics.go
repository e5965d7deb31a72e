// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder はメトリクス記録のインターフェース。
// バックエンドクライアントとAIオーケストレーターから利用する。
type Recorder interface {
	RecordAPIRequest(route, method string, statusCode int, duration time.Duration)
	RecordAuthRejection()
	AIStarted(kind string)
	AIFinished(kind, outcome string, duration time.Duration)
}

// AIの結果ラベル
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeDiscarded = "discarded"
)

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	apiRequests    *prometheus.CounterVec
	apiLatency     *prometheus.HistogramVec
	authRejections prometheus.Counter
	aiOperations   *prometheus.CounterVec
	aiLatency      *prometheus.HistogramVec
	aiInflight     *prometheus.GaugeVec
}

var _ Recorder = (*Collector)(nil)

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leadman_api_requests_total",
			Help: "バックエンドAPIリクエスト数（ルート・メソッド・ステータス別）",
		}, []string{"route", "method", "status_code"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "leadman_api_request_duration_seconds",
			Help:    "バックエンドAPIリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		authRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "leadman_auth_rejections_total",
			Help: "認証拒否によりセッションをクリアした回数",
		}),
		aiOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leadman_ai_operations_total",
			Help: "AIエンリッチメント操作の完了数（種類・結果別）",
		}, []string{"kind", "outcome"}),
		aiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "leadman_ai_operation_duration_seconds",
			Help:    "AIエンリッチメント操作の所要時間（秒）",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60},
		}, []string{"kind"}),
		aiInflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "leadman_ai_operations_in_flight",
			Help: "実行中のAIエンリッチメント操作数",
		}, []string{"kind"}),
	}

	reg.MustRegister(
		c.apiRequests,
		c.apiLatency,
		c.authRejections,
		c.aiOperations,
		c.aiLatency,
		c.aiInflight,
	)

	return c
}

// RecordAPIRequest はバックエンドへのリクエスト結果を記録する。
// statusCode が0の場合はトランスポートエラーとして "error" を記録する。
func (c *Collector) RecordAPIRequest(route, method string, statusCode int, duration time.Duration) {
	code := "error"
	if statusCode > 0 {
		code = strconv.Itoa(statusCode)
	}
	c.apiRequests.WithLabelValues(route, method, code).Inc()
	c.apiLatency.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordAuthRejection は認証拒否を記録する。
func (c *Collector) RecordAuthRejection() {
	c.authRejections.Inc()
}

// AIStarted はAI操作の開始を記録する。
func (c *Collector) AIStarted(kind string) {
	c.aiInflight.WithLabelValues(kind).Inc()
}

// AIFinished はAI操作の完了を記録する。
func (c *Collector) AIFinished(kind, outcome string, duration time.Duration) {
	c.aiInflight.WithLabelValues(kind).Dec()
	c.aiOperations.WithLabelValues(kind, outcome).Inc()
	c.aiLatency.WithLabelValues(kind).Observe(duration.Seconds())
}

// Nop は何も記録しないRecorder。メトリクス未設定時に使う。
type Nop struct{}

func (Nop) RecordAPIRequest(string, string, int, time.Duration) {}
func (Nop) RecordAuthRejection()                                {}
func (Nop) AIStarted(string)                                    {}
func (Nop) AIFinished(string, string, time.Duration)            {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
