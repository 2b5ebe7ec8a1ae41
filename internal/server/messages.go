package server

import (
	"encoding/json"

	"shadowtown/internal/game"
)

// ClientMessage 定義 WebSocket 客戶端發送的通用訊息格式
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// 大廳與房間管理請求
type CreateRoomPayload struct {
	Name string `json:"name"`
}

type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
}

type LeaveRoomPayload struct{}

type BotCommandPayload struct {
	Seat *int   `json:"seat,omitempty"`
	Name string `json:"name,omitempty"`
}

// 對局階段請求
type StartGamePayload struct{}

type NightActionPayload struct {
	Target int    `json:"target"`
	Kind   string `json:"kind"`
}

// DayVotePayload 的 Target 為 nil 或負數時視為棄票
type DayVotePayload struct {
	Target *int `json:"target"`
}

type VerdictVotePayload struct {
	Verdict string `json:"verdict"`
}

type ChatPayload struct {
	Channel string `json:"channel,omitempty"`
	Text    string `json:"text"`
}

// ServerMessage 是伺服器端對外推送的通用訊息格式
type ServerMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// 大廳資訊
type RoomSummary struct {
	RoomID   string `json:"roomId"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Players  int    `json:"players"`
	Capacity int    `json:"capacity"`
	Host     string `json:"host"`
}

type LobbyRoomsPayload struct {
	Rooms []RoomSummary `json:"rooms"`
}

// 房間內公開資訊
type PublicRoomStatePayload struct {
	RoomID     string               `json:"roomId"`
	RoomName   string               `json:"roomName"`
	Status     string               `json:"status"`
	Seats      []SeatPublicSnapshot `json:"seats"`
	HostSeat   int                  `json:"hostSeat"`
	PublicGame *PublicGamePayload   `json:"publicGame,omitempty"`
}

type SeatPublicSnapshot struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Filled bool   `json:"filled"`
	IsBot  bool   `json:"isBot"`
	IsHost bool   `json:"isHost"`
	Alive  *bool  `json:"alive,omitempty"`
}

type PublicGamePayload struct {
	Snapshot         game.PublicSnapshot `json:"snapshot"`
	RemainingSeconds int                 `json:"remainingSeconds"`
}

// 階段切換通知
type PhaseChangePayload struct {
	Phase            string `json:"phase"`
	PhaseName        string `json:"phaseName"`
	Day              int    `json:"day"`
	RemainingSeconds int    `json:"remainingSeconds"`
	Accused          *int   `json:"accused,omitempty"`
}

// 天亮後的傷亡清單
type DayBreakPayload struct {
	Day    int                `json:"day"`
	Deaths []game.DeathRecord `json:"deaths"`
}

type AccusationPayload struct {
	Accused *int        `json:"accused,omitempty"`
	Name    string      `json:"name,omitempty"`
	Counts  map[int]int `json:"counts,omitempty"`
}

type VerdictResultPayload struct {
	Accused  int               `json:"accused"`
	Guilty   int               `json:"guilty"`
	Innocent int               `json:"innocent"`
	Lynched  bool              `json:"lynched"`
	Death    *game.DeathRecord `json:"death,omitempty"`
}

type GameOverPayload struct {
	Report game.FinalReport `json:"report"`
}

// 私人資訊與提示
type PrivateStatePayload struct {
	Snapshot game.PrivateSnapshot `json:"snapshot"`
}

type FactionMatesPayload struct {
	Mates []game.Mate `json:"mates"`
}

type ChatMessagePayload struct {
	Channel string `json:"channel"`
	Seat    int    `json:"seat"`
	Name    string `json:"name"`
	Text    string `json:"text"`
}

type LogPayload struct {
	Message string `json:"message"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type PrivateInfoPayload struct {
	Message string `json:"message"`
}
