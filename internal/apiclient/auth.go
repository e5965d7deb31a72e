package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hitoshi/leadman/internal/model"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register はアカウントを作成し、発行されたセッションを返す。
func (c *Client) Register(ctx context.Context, name, email, password string) (*model.Session, error) {
	var sess model.Session
	err := c.Do(withCredentialExchange(ctx), Request{
		Method: http.MethodPost,
		Path:   "/auth/register",
		Body:   registerRequest{Name: name, Email: email, Password: password},
	}, &sess)
	if err != nil {
		return nil, err
	}
	if !sess.Valid() {
		return nil, fmt.Errorf("register: %w", model.NewRemoteError(http.StatusOK, "incomplete session in response"))
	}
	return &sess, nil
}

// Login は認証情報を送信し、発行されたセッションを返す。
// 認証情報の誤りによる401はセッション失効として扱わない。
func (c *Client) Login(ctx context.Context, email, password string) (*model.Session, error) {
	var sess model.Session
	err := c.Do(withCredentialExchange(ctx), Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Body:   loginRequest{Email: email, Password: password},
	}, &sess)
	if err != nil {
		return nil, err
	}
	if !sess.Valid() {
		return nil, fmt.Errorf("login: %w", model.NewRemoteError(http.StatusOK, "incomplete session in response"))
	}
	return &sess, nil
}

// Me は現在のトークンに対応するユーザーを取得する。
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var u model.User
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/auth/me"}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
