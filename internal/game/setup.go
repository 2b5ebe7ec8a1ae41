package game

import (
	"errors"
	"math/rand"
	"time"
)

var (
	// ErrInvalidPlayerCount 表示玩家人數不正確
	ErrInvalidPlayerCount = errors.New("玩家人數必須為 20 人")
)

const (
	// SeatCount 為固定開局人數
	SeatCount = 20

	townOpeners  = 8
	mafiaQuota   = 4
	neutralQuota = 3
)

// NewSession 依名單建立一場對局並分派角色
func NewSession(names []string, seed int64) (*Session, error) {
	if len(names) != SeatCount {
		return nil, ErrInvalidPlayerCount
	}

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	roles := buildRoleDeck(rng)
	shuffleRoles(rng, roles)

	s := &Session{
		Status:   StatusWaiting,
		Players:  make([]*Participant, len(names)),
		dayVotes: make(map[int]int),
		verdicts: make(map[int]Verdict),
		accused:  -1,
		lovers:   make(map[int]int),
		rng:      rng,
	}

	for i, name := range names {
		role := roles[i]
		p := &Participant{
			Seat:     i,
			Name:     name,
			Role:     role,
			Faction:  RoleFaction(role),
			Alive:    true,
			MarkSeat: -1,
		}
		if role == RoleJailor {
			p.ExecuteLeft = true
		}
		s.Players[i] = p
	}

	assignExecutionerMarks(rng, s.Players)

	return s, nil
}

// buildRoleDeck 依固定配額組出 20 人的角色牌堆：
// 先發 8 名市民，黑手黨保底教父與黨徒再補到 4 人，
// 邪教固定為教主、狂信徒、信徒三人，抽 3 名不重複中立，餘位以市民補滿。
func buildRoleDeck(rng *rand.Rand) []Role {
	deck := make([]Role, 0, SeatCount)

	for len(deck) < townOpeners {
		deck = append(deck, townPool[rng.Intn(len(townPool))])
	}

	mafia := []Role{RoleGodfather, RoleMafioso}
	extras := []Role{RoleJanitor, RoleSpy, RoleBeastman, RoleBlackmailer, RoleFramer, RoleMafioso}
	for len(mafia) < mafiaQuota {
		mafia = append(mafia, extras[rng.Intn(len(extras))])
	}
	deck = append(deck, mafia...)

	deck = append(deck, RoleCultLeader, RoleFanatic, RoleAcolyte)

	neutrals := append([]Role(nil), neutralPool...)
	rng.Shuffle(len(neutrals), func(i, j int) {
		neutrals[i], neutrals[j] = neutrals[j], neutrals[i]
	})
	deck = append(deck, neutrals[:neutralQuota]...)

	for len(deck) < SeatCount {
		deck = append(deck, townPool[rng.Intn(len(townPool))])
	}
	return deck
}

func shuffleRoles(rng *rand.Rand, roles []Role) {
	rng.Shuffle(len(roles), func(i, j int) {
		roles[i], roles[j] = roles[j], roles[i]
	})
}

// assignExecutionerMarks 為每名處刑者隨機指派一名市民作為獵物
func assignExecutionerMarks(rng *rand.Rand, players []*Participant) {
	townSeats := make([]int, 0, len(players))
	for _, p := range players {
		if p.Faction == FactionTown {
			townSeats = append(townSeats, p.Seat)
		}
	}
	if len(townSeats) == 0 {
		return
	}
	for _, p := range players {
		if p.Role == RoleExecutioner {
			p.MarkSeat = townSeats[rng.Intn(len(townSeats))]
		}
	}
}
