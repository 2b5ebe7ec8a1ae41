package game

// Mate 是陣營名單中的一筆隊友資料
type Mate struct {
	Seat     int    `json:"seat"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
	RoleName string `json:"roleName"`
	Alive    bool   `json:"alive"`
}

// FactionMates 即時計算指定座位可見的陣營名單，死者也列在其中。
// 尚未接頭的隱藏角色不出現在名單上，除非查看者是陣營首領，
// 或查看者自己就是隱藏角色。市民與中立沒有組織名單。
// 名單每次重算，不做快取；接頭與吸收都會改變結果。
func (s *Session) FactionMates(seat int) ([]Mate, error) {
	viewer, err := s.Seat(seat)
	if err != nil {
		return nil, err
	}
	if viewer.Faction != FactionMafia && viewer.Faction != FactionCult {
		return nil, nil
	}

	leader, _ := FactionLeader(viewer.Faction)
	viewerSeesHidden := viewer.Role == leader || IsHiddenRole(viewer.Role)

	mates := make([]Mate, 0, 4)
	for _, p := range s.Players {
		if p.Seat == viewer.Seat || p.Faction != viewer.Faction {
			continue
		}
		if IsHiddenRole(p.Role) && !p.Contacted && !viewerSeesHidden {
			continue
		}
		mates = append(mates, Mate{
			Seat: p.Seat, Name: p.Name,
			Role: p.Role, RoleName: p.Role.String(), Alive: p.Alive,
		})
	}
	return mates, nil
}
