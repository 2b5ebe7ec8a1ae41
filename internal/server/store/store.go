package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

type Store struct {
	db *sqlx.DB
}

type User struct {
	ID       int64     `db:"id" json:"id"`
	Username string    `db:"username" json:"username"`
	Created  time.Time `db:"created_at" json:"created"`
}

// MatchRecord 是一場結束對局的摘要。
type MatchRecord struct {
	ID       int64     `db:"id" json:"id"`
	RoomID   string    `db:"room_id" json:"roomId"`
	Winner   string    `db:"winner" json:"winner"`
	Days     int       `db:"days" json:"days"`
	Finished time.Time `db:"finished_at" json:"finished"`
}

// MatchSeat 是對局中單一座位的存檔資料。UserID 為 nil 代表機器人或未登入玩家。
type MatchSeat struct {
	Seat    int    `db:"seat" json:"seat"`
	UserID  *int64 `db:"user_id" json:"-"`
	Name    string `db:"name" json:"name"`
	Role    string `db:"role" json:"role"`
	Faction string `db:"faction" json:"faction"`
	Alive   bool   `db:"alive" json:"alive"`
	SideWin bool   `db:"side_win" json:"sideWin"`
}

// MatchHistoryEntry 是某位使用者視角的歷史對局：對局摘要加上他自己的座位結果。
type MatchHistoryEntry struct {
	MatchRecord
	Seat    int    `db:"seat" json:"seat"`
	Role    string `db:"role" json:"role"`
	Faction string `db:"faction" json:"faction"`
	Alive   bool   `db:"alive" json:"alive"`
	SideWin bool   `db:"side_win" json:"sideWin"`
}

// MatchStats 是使用者的累計戰績。
type MatchStats struct {
	Played   int `db:"played" json:"played"`
	Won      int `db:"won" json:"won"`
	SideWins int `db:"side_wins" json:"sideWins"`
}

func New(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("db 路徑不可為空")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("建立資料目錄失敗: %w", err)
	}

	db, err := sqlx.Connect("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("開啟資料庫失敗: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS users (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS sessions (
  token TEXT PRIMARY KEY,
  user_id INTEGER NOT NULL,
  created_at DATETIME NOT NULL,
  expires_at DATETIME NOT NULL,
  FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
CREATE INDEX IF NOT EXISTS idx_sessions_expiry ON sessions(expires_at);
CREATE TABLE IF NOT EXISTS matches (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  room_id TEXT NOT NULL,
  winner TEXT NOT NULL,
  days INTEGER NOT NULL,
  finished_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS match_players (
  match_id INTEGER NOT NULL,
  seat INTEGER NOT NULL,
  user_id INTEGER,
  name TEXT NOT NULL,
  role TEXT NOT NULL,
  faction TEXT NOT NULL,
  alive INTEGER NOT NULL,
  side_win INTEGER NOT NULL,
  PRIMARY KEY(match_id, seat),
  FOREIGN KEY(match_id) REFERENCES matches(id) ON DELETE CASCADE,
  FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE SET NULL
);
CREATE INDEX IF NOT EXISTS idx_match_players_user ON match_players(user_id);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("初始化資料表失敗: %w", err)
	}
	return nil
}

func (s *Store) CreateUser(username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("帳號不可為空")
	}
	if len(password) < 6 {
		return nil, fmt.Errorf("密碼長度至少 6 碼")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("加密密碼失敗: %w", err)
	}

	res, err := s.db.Exec(`INSERT INTO users(username, password_hash) VALUES(?, ?)`, username, string(hash))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, fmt.Errorf("帳號已存在")
		}
		return nil, fmt.Errorf("建立使用者失敗: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("取得使用者 ID 失敗: %w", err)
	}

	user := &User{ID: id, Username: username, Created: time.Now()}
	return user, nil
}

func (s *Store) Authenticate(username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("帳號不可為空")
	}

	var row struct {
		User
		PasswordHash string `db:"password_hash"`
	}
	err := s.db.Get(&row, `SELECT id, username, password_hash, created_at FROM users WHERE username = ?`, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("帳號或密碼錯誤")
		}
		return nil, fmt.Errorf("查詢使用者失敗: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("帳號或密碼錯誤")
	}

	user := row.User
	return &user, nil
}

func (s *Store) CreateSession(userID int64, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}

	token, err := randomToken(32)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	exp := now.Add(ttl)
	if _, err := s.db.Exec(`INSERT INTO sessions(token, user_id, created_at, expires_at) VALUES(?, ?, ?, ?)`, token, userID, now, exp); err != nil {
		return "", fmt.Errorf("建立會話失敗: %w", err)
	}

	return token, nil
}

func (s *Store) GetUserBySession(token string) (*User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("缺少會話 token")
	}

	var user User
	err := s.db.Get(&user, `SELECT u.id, u.username, u.created_at FROM sessions s JOIN users u ON u.id = s.user_id WHERE s.token = ? AND s.expires_at > ?`, token, time.Now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("會話無效或已過期")
		}
		return nil, fmt.Errorf("查詢會話失敗: %w", err)
	}

	return &user, nil
}

func (s *Store) CleanupExpiredSessions() error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("清理過期會話失敗: %w", err)
	}
	return nil
}

// RecordMatch 將結束的對局與所有座位結果寫入同一筆交易。
func (s *Store) RecordMatch(roomID, winner string, days int, seats []MatchSeat) (int64, error) {
	if len(seats) == 0 {
		return 0, fmt.Errorf("對局座位資料不可為空")
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return 0, fmt.Errorf("開啟交易失敗: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`INSERT INTO matches(room_id, winner, days, finished_at) VALUES(?, ?, ?, ?)`,
		roomID, winner, days, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("寫入對局失敗: %w", err)
	}
	matchID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("取得對局 ID 失敗: %w", err)
	}

	for _, seat := range seats {
		_, err := tx.Exec(`INSERT INTO match_players(match_id, seat, user_id, name, role, faction, alive, side_win) VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
			matchID, seat.Seat, seat.UserID, seat.Name, seat.Role, seat.Faction, seat.Alive, seat.SideWin)
		if err != nil {
			return 0, fmt.Errorf("寫入座位 %d 結果失敗: %w", seat.Seat, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("提交對局紀錄失敗: %w", err)
	}
	return matchID, nil
}

// MatchHistory 回傳使用者最近的對局，由新到舊。
func (s *Store) MatchHistory(userID int64, limit int) ([]MatchHistoryEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	var entries []MatchHistoryEntry
	err := s.db.Select(&entries, `
SELECT m.id, m.room_id, m.winner, m.days, m.finished_at,
       p.seat, p.role, p.faction, p.alive, p.side_win
FROM match_players p
JOIN matches m ON m.id = p.match_id
WHERE p.user_id = ?
ORDER BY m.finished_at DESC, m.id DESC
LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("查詢歷史對局失敗: %w", err)
	}
	return entries, nil
}

// MatchStatsFor 統計使用者的場次、勝場與個人目標達成數。
// 勝場以所屬陣營奪勝計，同歸於盡（winner 為空字串）不計入。
func (s *Store) MatchStatsFor(userID int64) (MatchStats, error) {
	var stats MatchStats
	err := s.db.Get(&stats, `
SELECT COUNT(*) AS played,
       COALESCE(SUM(CASE WHEN m.winner != '' AND m.winner = p.faction THEN 1 ELSE 0 END), 0) AS won,
       COALESCE(SUM(p.side_win), 0) AS side_wins
FROM match_players p
JOIN matches m ON m.id = p.match_id
WHERE p.user_id = ?`, userID)
	if err != nil {
		return MatchStats{}, fmt.Errorf("統計戰績失敗: %w", err)
	}
	return stats, nil
}

// RecentMatches 回傳全站最近結束的對局。
func (s *Store) RecentMatches(limit int) ([]MatchRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	var records []MatchRecord
	err := s.db.Select(&records, `SELECT id, room_id, winner, days, finished_at FROM matches ORDER BY finished_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("查詢最近對局失敗: %w", err)
	}
	return records, nil
}

func randomToken(bytesLen int) (string, error) {
	buf := make([]byte, bytesLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("生成亂數 token 失敗: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
