package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はコンソールを起動することを示す。
	CommandServe Command = "serve"
	// CommandMigrate はセッションテーブルのマイグレーションを実行することを示す。
	// SESSION_STORE=postgres の場合のみ意味を持つ。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck は起動中のコンソールのヘルスチェックを実行することを示す。
	CommandHealthcheck Command = "healthcheck"
	// CommandLogout はコンソールを起動せずに保存済みセッションを削除することを示す。
	CommandLogout Command = "logout"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "serve":
		return CommandServe
	case "migrate":
		return CommandMigrate
	case "healthcheck":
		return CommandHealthcheck
	case "logout":
		return CommandLogout
	default:
		return CommandServe
	}
}
