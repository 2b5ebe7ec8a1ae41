package server

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"shadowtown/internal/game"
	"shadowtown/internal/server/store"
)

const (
	RoomStatusLobby    = "lobby"
	RoomStatusRunning  = "running"
	RoomStatusFinished = "finished"
)

// 聊天頻道代號
const (
	ChatChannelTown  = "town"
	ChatChannelMafia = "mafia"
	ChatChannelCult  = "cult"
	ChatChannelDead  = "dead"
)

// Room 負責管理單一遊戲房間的生命週期
type Room struct {
	id       string
	name     string
	hub      *Hub
	mu       sync.Mutex
	status   string
	seats    []*Seat
	capacity int
	hostSeat int
	session  *game.Session

	// phaseSeq 讓過期的計時器自然失效；phaseStop 在房間收攤時喚醒所有計時器
	phaseSeq      int
	phaseStop     chan struct{}
	phaseDeadline time.Time

	rng *rand.Rand
}

// Seat 表示一個座位資訊
type Seat struct {
	Index  int
	Name   string
	Token  string
	UserID int64
	Client *Client
	Bot    *BotPlayer
}

func (s *Seat) isFilled() bool {
	return s.Client != nil || s.Bot != nil
}

func (s *Seat) displayBaseName() string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("座位%d", s.Index)
}

func (s *Seat) displayName() string {
	if s.Client != nil {
		return s.Client.name
	}
	if s.Bot != nil {
		return s.Bot.Name
	}
	return s.displayBaseName()
}

func (r *Room) firstEmptySeatLocked() *Seat {
	for _, seat := range r.seats {
		if !seat.isFilled() {
			return seat
		}
	}
	return nil
}

func (r *Room) assignHostLocked() {
	r.hostSeat = -1
	for _, seat := range r.seats {
		if seat.Client != nil {
			r.hostSeat = seat.Index
			return
		}
	}
	for _, seat := range r.seats {
		if seat.Bot != nil {
			r.hostSeat = seat.Index
			return
		}
	}
}

func (r *Room) isHost(c *Client) bool {
	if c == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return c.seatIndex == r.hostSeat
}

func (r *Room) addBot(name string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != RoomStatusLobby {
		return -1, fmt.Errorf("僅能在待機狀態新增機器人")
	}
	seat := r.firstEmptySeatLocked()
	if seat == nil {
		return -1, fmt.Errorf("房間已滿")
	}
	if name == "" {
		name = fmt.Sprintf("機器人%d", seat.Index+1)
	}
	seat.Bot = NewBotPlayer(seat.Index, name)
	seat.Name = name
	seat.UserID = 0
	seat.Token = fmt.Sprintf("bot-%d-%d", seat.Index, r.rng.Int63())
	seat.Client = nil
	if r.hostSeat == -1 {
		r.hostSeat = seat.Index
	}
	r.broadcastLobbyLocked()
	r.broadcastPublicStateLocked()
	return seat.Index, nil
}

func (r *Room) removeBot(seatIdx int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != RoomStatusLobby {
		return fmt.Errorf("對局進行中無法移除機器人")
	}
	if seatIdx < 0 || seatIdx >= len(r.seats) {
		return fmt.Errorf("無效座位")
	}
	seat := r.seats[seatIdx]
	if seat.Bot == nil {
		return fmt.Errorf("座位 %d 沒有機器人", seatIdx)
	}
	seat.Bot = nil
	if seat.Client == nil {
		seat.Name = ""
		seat.Token = ""
		seat.UserID = 0
	}
	if r.hostSeat == seatIdx {
		r.assignHostLocked()
	}
	r.broadcastLobbyLocked()
	r.broadcastPublicStateLocked()
	return nil
}

func (r *Room) summary() RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hostSeat < 0 || r.hostSeat >= len(r.seats) {
		r.assignHostLocked()
	}
	players := 0
	hostName := ""
	if r.hostSeat >= 0 && r.hostSeat < len(r.seats) {
		hostName = r.seats[r.hostSeat].displayName()
	}
	for _, seat := range r.seats {
		if seat.isFilled() {
			players++
		}
	}
	return RoomSummary{
		RoomID:   r.id,
		Name:     r.name,
		Status:   r.status,
		Players:  players,
		Capacity: r.capacity,
		Host:     hostName,
	}
}

func (r *Room) isEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, seat := range r.seats {
		if seat.Client != nil {
			return false
		}
	}
	return true
}

// NewRoom 建立房間
func NewRoom(id, name string, capacity int, hub *Hub) *Room {
	if capacity <= 0 {
		capacity = game.SeatCount
	}
	seats := make([]*Seat, capacity)
	for i := 0; i < capacity; i++ {
		seats[i] = &Seat{Index: i}
	}
	return &Room{
		id:       id,
		name:     name,
		hub:      hub,
		status:   RoomStatusLobby,
		seats:    seats,
		capacity: capacity,
		hostSeat: -1,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Join 將玩家加入座位
func (r *Room) Join(c *Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// 嘗試以 token 找到原座位進行重連
	if c.token != "" {
		for _, seat := range r.seats {
			if seat.Token == c.token {
				if seat.Client != nil {
					return fmt.Errorf("該座位已有連線")
				}
				seat.Client = c
				seat.Bot = nil
				seat.UserID = c.userID
				if r.session != nil && seat.Index < len(r.session.Players) {
					r.session.Players[seat.Index].Bot = false
				}
				if seat.Name != "" {
					c.name = seat.Name
				} else {
					seat.Name = c.name
				}
				c.token = seat.Token
				c.room = r
				c.seatIndex = seat.Index
				c.inLobby = false
				r.assignHostLocked()
				r.sendWelcomeLocked(c)
				r.broadcastLobbyLocked()
				r.broadcastPublicStateLocked()
				if r.session != nil {
					r.sendPrivateStateLocked(seat.Index)
					r.sendFactionMatesLocked(seat.Index)
					r.sendPhaseSnapshotLocked(c)
				}
				return nil
			}
		}
	}

	if r.status != RoomStatusLobby {
		return fmt.Errorf("對局已開始或結束，無法加入")
	}

	for _, seat := range r.seats {
		if !seat.isFilled() {
			seat.Client = c
			seat.Bot = nil
			seat.Name = c.name
			seat.UserID = c.userID
			token := c.token
			if token == "" {
				token = fmt.Sprintf("seat-%d-%d", seat.Index, r.rng.Int63())
			}
			seat.Token = token
			c.token = token
			c.room = r
			c.seatIndex = seat.Index
			c.inLobby = false
			r.assignHostLocked()
			r.sendWelcomeLocked(c)
			r.broadcastLobbyLocked()
			r.broadcastPublicStateLocked()
			return nil
		}
	}

	return fmt.Errorf("房間已滿")
}

func (r *Room) onClientLeft(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.seatIndex >= 0 && c.seatIndex < len(r.seats) {
		seat := r.seats[c.seatIndex]
		if seat.Client == c {
			seat.Client = nil
			if seat.Name == "" {
				seat.Name = c.name
			}
			if r.status == RoomStatusRunning {
				// 對局中斷線由機器人接手，座位與身分保留給原 token 重連
				if seat.Bot == nil {
					seat.Bot = NewBotPlayer(seat.Index, fmt.Sprintf("%s (AI)", seat.displayBaseName()))
				}
				if r.session != nil && seat.Index < len(r.session.Players) {
					r.session.Players[seat.Index].Bot = true
				}
				r.scheduleBotSeatLocked(seat.Bot)
			} else {
				seat.Bot = nil
				seat.Name = ""
				seat.Token = ""
				seat.UserID = 0
			}
			if seat.Index == r.hostSeat {
				r.assignHostLocked()
			}
		}
	}

	r.broadcastLobbyLocked()
	if r.session != nil {
		r.broadcastPublicStateLocked()
	}
}

func (r *Room) sendWelcomeLocked(c *Client) {
	var token string
	if c.seatIndex >= 0 && c.seatIndex < len(r.seats) {
		if seat := r.seats[c.seatIndex]; seat != nil {
			token = seat.Token
		}
	}
	payload := ServerMessage{Type: "welcome", Payload: map[string]interface{}{
		"roomId":      r.id,
		"roomName":    r.name,
		"seatIndex":   c.seatIndex,
		"status":      r.status,
		"token":       token,
		"capacity":    r.capacity,
		"displayName": c.name,
		"account":     c.account,
		"userId":      c.userID,
	}}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
		go c.close()
	}
}

func (r *Room) broadcastLobbyLocked() {
	msg := ServerMessage{
		Type: "lobby_state",
		Payload: PublicRoomStatePayload{
			RoomID:   r.id,
			RoomName: r.name,
			Status:   r.status,
			Seats:    r.buildSeatSnapshotsLocked(),
			HostSeat: r.hostSeat,
		},
	}
	r.broadcastLocked(msg)
}

func (r *Room) buildSeatSnapshotsLocked() []SeatPublicSnapshot {
	seats := make([]SeatPublicSnapshot, 0, len(r.seats))
	for _, seat := range r.seats {
		snapshot := SeatPublicSnapshot{
			Index:  seat.Index,
			Name:   seat.displayName(),
			Filled: seat.isFilled(),
			IsBot:  seat.Bot != nil,
			IsHost: seat.Index == r.hostSeat,
		}
		if p := r.participantLocked(seat.Index); p != nil {
			alive := p.Alive
			snapshot.Alive = &alive
		}
		seats = append(seats, snapshot)
	}
	return seats
}

func (r *Room) broadcastLocked(msg ServerMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	recipients := r.collectClientsLocked()
	for _, c := range recipients {
		select {
		case c.send <- payload:
		default:
			go c.close()
		}
	}
}

func (r *Room) collectClientsLocked() []*Client {
	clients := make([]*Client, 0, len(r.seats))
	for _, seat := range r.seats {
		if seat.Client != nil {
			clients = append(clients, seat.Client)
		}
	}
	return clients
}

func (r *Room) broadcastPublicStateLocked() {
	payload := PublicRoomStatePayload{
		RoomID:   r.id,
		RoomName: r.name,
		Status:   r.status,
		Seats:    r.buildSeatSnapshotsLocked(),
	}
	if r.session != nil {
		payload.PublicGame = &PublicGamePayload{
			Snapshot:         r.session.BuildPublicSnapshot(),
			RemainingSeconds: r.remainingSecondsLocked(),
		}
	}
	payload.HostSeat = r.hostSeat
	r.broadcastLocked(ServerMessage{Type: "public_state", Payload: payload})
}

func (r *Room) sendPrivateStateLocked(seatIdx int) {
	if seatIdx < 0 || seatIdx >= len(r.seats) {
		return
	}
	seat := r.seats[seatIdx]
	if seat.Client == nil || r.session == nil {
		return
	}
	snapshot, err := r.session.BuildPrivateSnapshot(seatIdx)
	if err != nil {
		r.sendErrorLocked(seat.Client, err)
		return
	}
	payload, err := json.Marshal(ServerMessage{Type: "private_state", Payload: PrivateStatePayload{Snapshot: snapshot}})
	if err != nil {
		return
	}
	select {
	case seat.Client.send <- payload:
	default:
		go seat.Client.close()
	}
}

// sendFactionMatesLocked 推送陣營名單；鎮民與中立者沒有名單可推
func (r *Room) sendFactionMatesLocked(seatIdx int) {
	if seatIdx < 0 || seatIdx >= len(r.seats) || r.session == nil {
		return
	}
	seat := r.seats[seatIdx]
	if seat.Client == nil {
		return
	}
	mates, err := r.session.FactionMates(seatIdx)
	if err != nil || mates == nil {
		return
	}
	payload, err := json.Marshal(ServerMessage{Type: "faction_mates", Payload: FactionMatesPayload{Mates: mates}})
	if err != nil {
		return
	}
	select {
	case seat.Client.send <- payload:
	default:
		go seat.Client.close()
	}
}

func (r *Room) sendErrorLocked(c *Client, err error) {
	payload, encodeErr := json.Marshal(ServerMessage{Type: "error", Payload: ErrorPayload{Message: err.Error()}})
	if encodeErr != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
		go c.close()
	}
}

func (r *Room) sendPrivateInfoLocked(c *Client, message string) {
	payload, encodeErr := json.Marshal(ServerMessage{Type: "private_info", Payload: PrivateInfoPayload{Message: message}})
	if encodeErr != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
		go c.close()
	}
}

func (r *Room) sendPrivateLogLocked(c *Client, message string) {
	payload, encodeErr := json.Marshal(ServerMessage{Type: "log", Payload: LogPayload{Message: message}})
	if encodeErr != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
		go c.close()
	}
}

// StartGame 由房主觸發正式開局：補滿機器人、發身分、進入第一夜
func (r *Room) StartGame() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != RoomStatusLobby {
		return fmt.Errorf("對局已在進行或結束")
	}

	names := make([]string, len(r.seats))
	for i, seat := range r.seats {
		if seat.Client != nil {
			names[i] = seat.Client.name
		} else {
			if seat.Bot == nil {
				botName := fmt.Sprintf("機器人%d", i+1)
				seat.Bot = NewBotPlayer(i, botName)
				seat.Name = botName
			}
			names[i] = seat.Bot.Name
		}
	}

	session, err := game.NewSession(names, r.rng.Int63())
	if err != nil {
		return err
	}
	for i, seat := range r.seats {
		session.Players[i].Bot = seat.Bot != nil
	}
	if err := session.Start(); err != nil {
		return err
	}
	r.session = session

	r.status = RoomStatusRunning
	r.phaseStop = make(chan struct{})
	log.Printf("房間 %s 開局，座位 %d 席", r.id, len(r.seats))

	r.broadcastLobbyLocked()
	r.broadcastLocked(ServerMessage{Type: "log", Payload: LogPayload{Message: "第 1 夜降臨，全鎮陷入黑暗"}})
	for _, seat := range r.seats {
		if seat.Client != nil {
			r.sendPrivateStateLocked(seat.Index)
			r.sendFactionMatesLocked(seat.Index)
		}
	}
	r.broadcastPublicStateLocked()
	r.schedulePhaseLocked()
	return nil
}

// handleNightAction 受理玩家的夜晚行動
func (r *Room) handleNightAction(c *Client, payload NightActionPayload) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != RoomStatusRunning || r.session == nil {
		return fmt.Errorf("對局尚未開始")
	}
	kind, err := parseActionKind(payload.Kind)
	if err != nil {
		return err
	}
	actor, err := r.session.Seat(c.seatIndex)
	if err != nil {
		return err
	}
	if !roleAllowsKind(actor.Role, kind) {
		return fmt.Errorf("你的身分無法執行 %s", kind)
	}

	act := game.NightAction{
		Actor:        c.seatIndex,
		Target:       payload.Target,
		Kind:         kind,
		DeclaredRole: actor.Role,
	}
	if err := r.session.QueueAction(act); err != nil {
		return err
	}
	r.sendPrivateInfoLocked(c, "已收到你今晚的行動")
	return nil
}

// handleDayVote 受理公審投票；target 缺漏或為負數視為棄票
func (r *Room) handleDayVote(c *Client, payload DayVotePayload) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != RoomStatusRunning || r.session == nil {
		return fmt.Errorf("對局尚未開始")
	}
	target := game.AbstainVote
	if payload.Target != nil && *payload.Target >= 0 {
		target = *payload.Target
	}
	if err := r.session.CastVote(c.seatIndex, target); err != nil {
		return err
	}
	if target == game.AbstainVote {
		r.sendPrivateInfoLocked(c, "已記錄你的棄票")
	} else {
		r.sendPrivateInfoLocked(c, fmt.Sprintf("已記錄你對 %d 號的指控", target))
	}
	return nil
}

// handleVerdictVote 受理生死表決
func (r *Room) handleVerdictVote(c *Client, payload VerdictVotePayload) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != RoomStatusRunning || r.session == nil {
		return fmt.Errorf("對局尚未開始")
	}
	v := game.Verdict(strings.ToLower(strings.TrimSpace(payload.Verdict)))
	if err := r.session.CastVerdict(c.seatIndex, v); err != nil {
		return err
	}
	r.sendPrivateInfoLocked(c, "已記錄你的表決")
	return nil
}

// handleChat 依頻道與生死狀態分發聊天訊息
func (r *Room) handleChat(c *Client, payload ChatPayload) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	text := strings.TrimSpace(payload.Text)
	if text == "" {
		return fmt.Errorf("訊息不可為空")
	}
	if len(text) > 500 {
		text = text[:500]
	}
	seat := r.getSeatLocked(c.seatIndex)
	if seat == nil {
		return fmt.Errorf("尚未入座")
	}

	// 大廳或終局狀態下整房暢聊
	if r.status != RoomStatusRunning || r.session == nil {
		r.deliverChatLocked(ChatChannelTown, seat, text, r.collectClientsLocked())
		return nil
	}

	p, err := r.session.Seat(seat.Index)
	if err != nil {
		return err
	}

	channel := payload.Channel
	if channel == "" {
		channel = ChatChannelTown
	}
	if !p.Alive {
		channel = ChatChannelDead
	}

	switch channel {
	case ChatChannelTown:
		if r.session.Phase.IsNight() {
			return fmt.Errorf("夜晚禁止公開發言")
		}
		r.absorbChatVoteLocked(seat, text)
		r.deliverChatLocked(channel, seat, text, r.livingAudienceLocked())
	case ChatChannelMafia:
		if p.Faction != game.FactionMafia {
			return fmt.Errorf("你不在黑手黨頻道")
		}
		if game.IsHiddenRole(p.Role) && !p.Contacted {
			return fmt.Errorf("接頭前不得在陣營頻道發言")
		}
		r.deliverChatLocked(channel, seat, text, r.factionAudienceLocked(game.FactionMafia))
	case ChatChannelCult:
		if p.Faction != game.FactionCult {
			return fmt.Errorf("你不在教團頻道")
		}
		if game.IsHiddenRole(p.Role) && !p.Contacted {
			return fmt.Errorf("接頭前不得在陣營頻道發言")
		}
		r.deliverChatLocked(channel, seat, text, r.factionAudienceLocked(game.FactionCult))
	case ChatChannelDead:
		if p.Alive {
			return fmt.Errorf("亡者頻道僅限死者")
		}
		r.deliverChatLocked(channel, seat, text, r.deadAudienceLocked())
	default:
		return fmt.Errorf("未知頻道 %q", channel)
	}
	return nil
}

// absorbChatVoteLocked 在公審投票階段把口頭報號當作投票，沿用口頭喊票的老玩法
func (r *Room) absorbChatVoteLocked(seat *Seat, text string) {
	if r.session.Phase != game.PhaseDayVote {
		return
	}
	if strings.EqualFold(text, "skip") || text == "棄票" {
		if err := r.session.CastVote(seat.Index, game.AbstainVote); err == nil && seat.Client != nil {
			r.sendPrivateInfoLocked(seat.Client, "已記錄你的棄票")
		}
		return
	}
	target, err := strconv.Atoi(text)
	if err != nil {
		return
	}
	if err := r.session.CastVote(seat.Index, target); err == nil && seat.Client != nil {
		r.sendPrivateInfoLocked(seat.Client, fmt.Sprintf("已記錄你對 %d 號的指控", target))
	}
}

func (r *Room) deliverChatLocked(channel string, seat *Seat, text string, recipients []*Client) {
	msg := ServerMessage{Type: "chat", Payload: ChatMessagePayload{
		Channel: channel,
		Seat:    seat.Index,
		Name:    seat.displayName(),
		Text:    text,
	}}
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	for _, client := range recipients {
		select {
		case client.send <- payload:
		default:
			go client.close()
		}
	}
}

func (r *Room) livingAudienceLocked() []*Client {
	clients := make([]*Client, 0, len(r.seats))
	for _, seat := range r.seats {
		if seat.Client == nil {
			continue
		}
		if p := r.participantLocked(seat.Index); p != nil && p.Alive {
			clients = append(clients, seat.Client)
		}
	}
	return clients
}

func (r *Room) factionAudienceLocked(faction game.Faction) []*Client {
	clients := make([]*Client, 0, len(r.seats))
	for _, seat := range r.seats {
		if seat.Client == nil {
			continue
		}
		if p := r.participantLocked(seat.Index); p != nil && p.Faction == faction {
			clients = append(clients, seat.Client)
		}
	}
	return clients
}

func (r *Room) deadAudienceLocked() []*Client {
	clients := make([]*Client, 0, len(r.seats))
	for _, seat := range r.seats {
		if seat.Client == nil {
			continue
		}
		if p := r.participantLocked(seat.Index); p != nil && !p.Alive {
			clients = append(clients, seat.Client)
		}
	}
	return clients
}

func (r *Room) getSeatLocked(id int) *Seat {
	if id < 0 || id >= len(r.seats) {
		return nil
	}
	return r.seats[id]
}

func (r *Room) participantLocked(seatIdx int) *game.Participant {
	if r.session == nil || seatIdx < 0 || seatIdx >= len(r.session.Players) {
		return nil
	}
	return r.session.Players[seatIdx]
}

// finishGameLocked 廣播終局報告、存檔戰績，並在短暫展示後重回大廳
func (r *Room) finishGameLocked(win *game.WinReport) {
	if r.session == nil {
		return
	}

	r.status = RoomStatusFinished
	r.phaseSeq++
	r.phaseDeadline = time.Time{}

	if win != nil && win.Winner != "" {
		r.broadcastLocked(ServerMessage{Type: "log", Payload: LogPayload{Message: fmt.Sprintf("對局結束，%s取得勝利", win.Winner.String())}})
	} else {
		r.broadcastLocked(ServerMessage{Type: "log", Payload: LogPayload{Message: "對局結束，全鎮同歸於盡，無人生還"}})
	}

	report, err := r.session.BuildFinalReport()
	if err != nil {
		log.Printf("房間 %s 產生終局報告失敗: %v", r.id, err)
	} else {
		r.broadcastLocked(ServerMessage{Type: "game_over", Payload: GameOverPayload{Report: report}})
		r.recordMatchLocked(report)
	}
	r.broadcastPublicStateLocked()
	r.broadcastLobbyLocked()

	go func() {
		time.Sleep(5 * time.Second)
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.status != RoomStatusFinished {
			return
		}
		r.resetToLobbyLocked()
	}()
}

// recordMatchLocked 在鎖內收齊存檔資料後交給背景寫入，不阻塞廣播
func (r *Room) recordMatchLocked(report game.FinalReport) {
	if r.hub == nil || r.hub.store == nil {
		return
	}

	sideWins := make(map[int]bool, len(report.SideWins))
	for _, sw := range report.SideWins {
		sideWins[sw.Seat] = true
	}
	seats := make([]store.MatchSeat, 0, len(report.Roster))
	for _, entry := range report.Roster {
		seat := store.MatchSeat{
			Seat:    entry.Seat,
			Name:    entry.Name,
			Role:    string(entry.Role),
			Faction: string(entry.Faction),
			Alive:   entry.Alive,
			SideWin: sideWins[entry.Seat],
		}
		if s := r.getSeatLocked(entry.Seat); s != nil && s.UserID > 0 {
			userID := s.UserID
			seat.UserID = &userID
		}
		seats = append(seats, seat)
	}

	roomID, winner, days := r.id, string(report.Winner), report.Day
	st := r.hub.store
	go func() {
		if _, err := st.RecordMatch(roomID, winner, days, seats); err != nil {
			log.Printf("房間 %s 寫入戰績失敗: %v", roomID, err)
		}
	}()
}

func (r *Room) resetToLobbyLocked() {
	emptyPayload, err := json.Marshal(ServerMessage{Type: "private_state", Payload: PrivateStatePayload{}})
	if err != nil {
		emptyPayload = nil
	}

	for _, seat := range r.seats {
		if emptyPayload != nil && seat.Client != nil {
			select {
			case seat.Client.send <- emptyPayload:
			default:
				go seat.Client.close()
			}
		}
	}

	r.session = nil
	r.phaseDeadline = time.Time{}
	r.status = RoomStatusLobby

	r.broadcastPublicStateLocked()
	r.broadcastLobbyLocked()
}

// roleAllowsKind 限制每個行動類型只能由對應身分提交
func roleAllowsKind(role game.Role, kind game.ActionKind) bool {
	switch kind {
	case game.ActionJail, game.ActionExecute:
		return role == game.RoleJailor
	case game.ActionContact:
		return role == game.RoleFanatic || role == game.RoleSpy
	case game.ActionPair:
		return role == game.RoleCupid
	case game.ActionConvert:
		return role == game.RoleCultLeader
	case game.ActionHeal:
		return role == game.RoleDoctor
	case game.ActionGuard:
		return role == game.RoleBodyguard
	case game.ActionKill:
		return role == game.RoleGodfather || role == game.RoleMafioso || role == game.RoleBeastman
	case game.ActionBeastKill:
		return role == game.RoleBeastman
	case game.ActionStab:
		return role == game.RoleSerialKiller || role == game.RoleArsonist
	case game.ActionShoot:
		return role == game.RoleVigilante
	case game.ActionClean:
		return role == game.RoleJanitor
	default:
		return false
	}
}

func parseActionKind(raw string) (game.ActionKind, error) {
	kind := game.ActionKind(strings.TrimSpace(raw))
	switch kind {
	case game.ActionJail, game.ActionExecute, game.ActionContact, game.ActionPair,
		game.ActionConvert, game.ActionHeal, game.ActionGuard, game.ActionKill,
		game.ActionBeastKill, game.ActionStab, game.ActionShoot, game.ActionClean:
		return kind, nil
	default:
		return "", fmt.Errorf("未知行動類型 %q", raw)
	}
}
