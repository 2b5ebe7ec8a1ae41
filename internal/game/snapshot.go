package game

import "fmt"

// PublicSeatSnapshot 用於前端展示座位的公共資訊。
// 角色與陣營只在 Revealed 後揭露；被清理的屍體永遠不揭露。
type PublicSeatSnapshot struct {
	Seat      int     `json:"seat"`
	Name      string  `json:"name"`
	Bot       bool    `json:"bot"`
	Alive     bool    `json:"alive"`
	Revealed  bool    `json:"revealed"`
	Role      Role    `json:"role,omitempty"`
	RoleName  string  `json:"roleName,omitempty"`
	Faction   Faction `json:"faction,omitempty"`
	Concealed bool    `json:"concealed,omitempty"`
}

// PublicSnapshot 表示外部可見的對局狀態摘要
type PublicSnapshot struct {
	Status    Status               `json:"status"`
	Phase     Phase                `json:"phase"`
	PhaseName string               `json:"phaseName"`
	Day       int                  `json:"day"`
	Accused   *int                 `json:"accused,omitempty"`
	Seats     []PublicSeatSnapshot `json:"seats"`
}

// PrivateSnapshot 給指定玩家查看自身詳細資訊
type PrivateSnapshot struct {
	Seat        int     `json:"seat"`
	Name        string  `json:"name"`
	Role        Role    `json:"role"`
	RoleName    string  `json:"roleName"`
	Faction     Faction `json:"faction"`
	FactionName string  `json:"factionName"`
	Alive       bool    `json:"alive"`
	Contacted   bool    `json:"contacted"`
	Protected   bool    `json:"protected"`
	ExecuteLeft bool    `json:"executeLeft"`
	Lover       *int    `json:"lover,omitempty"`
	Mark        *int    `json:"mark,omitempty"`
	Mates       []Mate  `json:"mates,omitempty"`
}

// BuildPublicSnapshot 建立對外可觀察的座位資訊
func (s *Session) BuildPublicSnapshot() PublicSnapshot {
	seats := make([]PublicSeatSnapshot, 0, len(s.Players))
	for _, p := range s.Players {
		seat := PublicSeatSnapshot{
			Seat:      p.Seat,
			Name:      p.Name,
			Bot:       p.Bot,
			Alive:     p.Alive,
			Revealed:  p.Revealed,
			Concealed: p.BodyConcealed,
		}
		if p.Revealed {
			seat.Role = p.Role
			seat.RoleName = p.Role.String()
			seat.Faction = p.Faction
		}
		seats = append(seats, seat)
	}
	snapshot := PublicSnapshot{
		Status:    s.Status,
		Phase:     s.Phase,
		PhaseName: s.Phase.String(),
		Day:       s.Day,
		Seats:     seats,
	}
	if accused, ok := s.Accused(); ok {
		snapshot.Accused = &accused
	}
	return snapshot
}

// BuildPrivateSnapshot 為指定座位製作私人視角；
// 黑手黨與邪教成員附上目前可見的陣營名單
func (s *Session) BuildPrivateSnapshot(seat int) (PrivateSnapshot, error) {
	p, err := s.Seat(seat)
	if err != nil {
		return PrivateSnapshot{}, fmt.Errorf("無法建立座位 %d 的視角: %w", seat, err)
	}
	snapshot := PrivateSnapshot{
		Seat:        p.Seat,
		Name:        p.Name,
		Role:        p.Role,
		RoleName:    p.Role.String(),
		Faction:     p.Faction,
		FactionName: p.Faction.String(),
		Alive:       p.Alive,
		Contacted:   p.Contacted,
		Protected:   p.Role == RoleSoldier && !p.ProtectionUsed,
		ExecuteLeft: p.ExecuteLeft,
	}
	if lover, ok := s.Lover(p.Seat); ok {
		snapshot.Lover = &lover
	}
	if p.MarkSeat >= 0 {
		mark := p.MarkSeat
		snapshot.Mark = &mark
	}
	mates, err := s.FactionMates(p.Seat)
	if err != nil {
		return PrivateSnapshot{}, err
	}
	snapshot.Mates = mates
	return snapshot, nil
}

// FinalSeatReveal 是終局報告中一個座位的完整身分
type FinalSeatReveal struct {
	Seat     int     `json:"seat"`
	Name     string  `json:"name"`
	Bot      bool    `json:"bot"`
	Role     Role    `json:"role"`
	RoleName string  `json:"roleName"`
	Faction  Faction `json:"faction"`
	Alive    bool    `json:"alive"`
}

// FinalReport 是對局結束時的總結，包含全員身分揭露
type FinalReport struct {
	Winner      Faction           `json:"winner"`
	WinnerLabel string            `json:"winnerLabel"`
	Day         int               `json:"day"`
	SideWins    []SideWin         `json:"sideWins"`
	Roster      []FinalSeatReveal `json:"roster"`
}

// BuildFinalReport 在對局結束後產生終局報告
func (s *Session) BuildFinalReport() (FinalReport, error) {
	if s.Status != StatusEnded {
		return FinalReport{}, fmt.Errorf("對局尚未結束，無法產生終局報告")
	}
	roster := make([]FinalSeatReveal, 0, len(s.Players))
	for _, p := range s.Players {
		roster = append(roster, FinalSeatReveal{
			Seat:     p.Seat,
			Name:     p.Name,
			Bot:      p.Bot,
			Role:     p.Role,
			RoleName: p.Role.String(),
			Faction:  p.Faction,
			Alive:    p.Alive,
		})
	}
	label := "同歸於盡"
	if s.winner != "" {
		label = s.winner.String()
	}
	return FinalReport{
		Winner:      s.winner,
		WinnerLabel: label,
		Day:         s.Day,
		SideWins:    s.SideWins(),
		Roster:      roster,
	}, nil
}
