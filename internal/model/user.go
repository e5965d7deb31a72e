// Package model はドメインモデルを定義する。
package model

// User はバックエンドが返すログインユーザーを表す。
// クライアント側では再取得以外で変更しない。
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Session はBearerトークンとユーザーの組を表す。
// 永続化ストアにはこの2つが常に同時に書き込まれ、同時に削除される。
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Valid はトークンとユーザーの両方が揃っているかを返す。
func (s *Session) Valid() bool {
	return s != nil && s.Token != "" && s.User.ID != ""
}

// SessionState はルートガードやビューが参照するセッション状態のスナップショット。
// Loading が true の間は起動時の再検証が完了していない。
type SessionState struct {
	User    *User
	Loading bool
}

// SignedIn はユーザーが存在するかを返す。
func (s SessionState) SignedIn() bool {
	return s.User != nil
}
