// Package apiclient はリード管理バックエンドのHTTPクライアントを提供する。
//
// 全てのリクエストは同じトランスポートチェーンを通る。
// チェーンは送信レート制限とBearerトークン付与を行い、
// 401を受けた場合はバインドされたセッションに通知する。
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/hitoshi/leadman/internal/metrics"
	"github.com/hitoshi/leadman/internal/model"
)

const (
	// apiPrefix はバックエンドAPIのパスプレフィックス。
	apiPrefix = "/api"
	// maxErrorBodySize はエラーレスポンスから読み取る最大バイト数。
	maxErrorBodySize = 64 * 1024
	// headerRequestID はリクエスト追跡用のヘッダー名。
	headerRequestID = "X-Request-ID"
)

// SessionBinding はクライアントがセッションに問い合わせるためのインターフェース。
// 実装はセッションマネージャー。
type SessionBinding interface {
	// Token は現在のBearerトークンを返す。未ログイン時は空文字列。
	Token() string
	// HandleAuthRejection はtokenを付けたリクエストが401で拒否されたことを通知する。
	HandleAuthRejection(ctx context.Context, token string)
}

// Config はClientの設定。
type Config struct {
	BaseURL   string            // バックエンドのベースURL（/api は含めない）
	Timeout   time.Duration     // 1リクエストのタイムアウト
	RateLimit int               // 1分あたりの最大リクエスト数（0以下で無制限）
	RateBurst int               // バースト許容数
	Transport http.RoundTripper // 下位トランスポート（nilの場合はhttp.DefaultTransport）
	Recorder  metrics.Recorder
	Logger    *slog.Logger
}

// Request はバックエンドへの1リクエストを表す。
type Request struct {
	Method string
	Path   string     // /api 以下のパス（例: /leads/abc）
	Route  string     // メトリクス用のルートテンプレート（例: /leads/{id}）。空ならPath
	Query  url.Values // クエリパラメータ
	Body   any        // JSONエンコードするボディ（nilなら送信しない）
}

// bindingRef はatomic.Pointerに格納するためのラッパー。
type bindingRef struct {
	session SessionBinding
}

// Client はバックエンドAPIのクライアント。
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	binding    atomic.Pointer[bindingRef]
	recorder   metrics.Recorder
	logger     *slog.Logger
}

// New はClientの新しいインスタンスを生成する。
// セッションとの接続はBindSessionで後から行う。
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("バックエンドURLのパースに失敗しました: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("バックエンドURLのスキームが不正です: %q", cfg.BaseURL)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("バックエンドURLにホストがありません: %q", cfg.BaseURL)
	}

	recorder := cfg.Recorder
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	next := cfg.Transport
	if next == nil {
		next = http.DefaultTransport
	}

	c := &Client{
		baseURL:  base,
		recorder: recorder,
		logger:   logger,
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RateLimit)/60.0), burst)
	}

	c.httpClient = &http.Client{
		Timeout: cfg.Timeout,
		Transport: &authTransport{
			client: c,
			next: &limitTransport{
				limiter: limiter,
				next:    next,
			},
		},
	}
	return c, nil
}

// BindSession はトークン供給と認証拒否通知の相手を設定する。
func (c *Client) BindSession(s SessionBinding) {
	if s == nil {
		c.binding.Store(nil)
		return
	}
	c.binding.Store(&bindingRef{session: s})
}

func (c *Client) session() SessionBinding {
	if ref := c.binding.Load(); ref != nil {
		return ref.session
	}
	return nil
}

// Do はリクエストを送信し、成功時はレスポンスJSONをoutにデコードする。
// 2xx以外は *model.APIError に変換して返す。
func (c *Client) Do(ctx context.Context, r Request, out any) error {
	route := r.Route
	if route == "" {
		route = r.Path
	}

	u := *c.baseURL
	u.Path = c.baseURL.Path + apiPrefix + r.Path
	if len(r.Query) > 0 {
		u.RawQuery = r.Query.Encode()
	}

	var body io.Reader
	if r.Body != nil {
		buf, err := json.Marshal(r.Body)
		if err != nil {
			return fmt.Errorf("リクエストボディのエンコードに失敗しました: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, u.String(), body)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set(headerRequestID, requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.recorder.RecordAPIRequest(route, r.Method, 0, elapsed)
		c.logger.Error("バックエンドへのリクエストに失敗しました",
			slog.String("request_id", requestID),
			slog.String("method", r.Method),
			slog.String("route", route),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%s %s: %w", r.Method, route, model.NewRemoteError(0, transportDetail(err)))
	}
	defer resp.Body.Close()
	c.recorder.RecordAPIRequest(route, r.Method, resp.StatusCode, elapsed)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		apiErr := mapStatus(ctx, resp.StatusCode, parseDetail(raw))
		level := slog.LevelWarn
		if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusUnauthorized {
			level = slog.LevelInfo
		}
		c.logger.Log(ctx, level, "バックエンドがエラーステータスを返しました",
			slog.String("request_id", requestID),
			slog.String("method", r.Method),
			slog.String("route", route),
			slog.Int("http_status", resp.StatusCode),
			slog.String("detail", apiErr.Detail),
		)
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		c.logger.Error("バックエンドのレスポンスのパースに失敗しました",
			slog.String("method", r.Method),
			slog.String("route", route),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%s %s: %w", r.Method, route,
			model.NewRemoteError(resp.StatusCode, "unexpected response from server"))
	}
	return nil
}

// transportDetail はネットワークエラーをユーザー向けの短い説明に変換する。
func transportDetail(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "request canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return "request timed out"
	}
	return "backend unreachable"
}
