package apiclient

import (
	"context"
	"net/http"

	"golang.org/x/time/rate"
)

type credentialExchangeKey struct{}

// withCredentialExchange はログイン・登録のリクエストであることをコンテキストに記録する。
// これらの401は認証情報の誤りであり、セッションの失効ではない。
func withCredentialExchange(ctx context.Context) context.Context {
	return context.WithValue(ctx, credentialExchangeKey{}, true)
}

func isCredentialExchange(ctx context.Context) bool {
	v, _ := ctx.Value(credentialExchangeKey{}).(bool)
	return v
}

// authTransport はBearerトークンを付与し、401を検出してセッションに通知する。
// 全ての送信リクエストがこのデコレーターを通る。
type authTransport struct {
	client *Client
	next   http.RoundTripper
}

// RoundTrip はhttp.RoundTripperを実装する。
func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	session := t.client.session()
	exchange := isCredentialExchange(req.Context())

	var token string
	if session != nil && !exchange {
		token = session.Token()
	}
	if token != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && !exchange && session != nil {
		t.client.recorder.RecordAuthRejection()
		session.HandleAuthRejection(req.Context(), token)
	}
	return resp, nil
}

// limitTransport はバックエンドへの送信レートを制限する。
type limitTransport struct {
	limiter *rate.Limiter
	next    http.RoundTripper
}

// RoundTrip はhttp.RoundTripperを実装する。
// トークンが得られるまで待機し、コンテキストのキャンセルで中断する。
func (t *limitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}
	return t.next.RoundTrip(req)
}
