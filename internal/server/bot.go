package server

import (
	"time"

	"shadowtown/internal/game"
)

// BotPlayer 代表 AI 玩家
type BotPlayer struct {
	SeatIndex int
	Name      string
}

func NewBotPlayer(seatIndex int, name string) *BotPlayer {
	return &BotPlayer{SeatIndex: seatIndex, Name: name}
}

// scheduleBotsLocked 在階段開始時為所有機器人排程行動
func (r *Room) scheduleBotsLocked() {
	for _, seat := range r.seats {
		if seat.Bot != nil {
			r.scheduleBotSeatLocked(seat.Bot)
		}
	}
}

// scheduleBotSeatLocked 依當前階段指派單一機器人；討論與辯護階段機器人保持沉默
func (r *Room) scheduleBotSeatLocked(bot *BotPlayer) {
	if r.status != RoomStatusRunning || r.session == nil {
		return
	}
	p := r.participantLocked(bot.SeatIndex)
	if p == nil || !p.Alive {
		return
	}
	seq := r.phaseSeq
	delay := r.botThinkDelayLocked()
	switch r.session.Phase {
	case game.PhaseNight:
		go r.runBotNight(bot, seq, delay)
	case game.PhaseDayVote:
		go r.runBotVote(bot, seq, delay)
	case game.PhaseDayFinal:
		go r.runBotVerdict(bot, seq, delay)
	}
}

func (r *Room) botThinkDelayLocked() time.Duration {
	bots := r.rulesLocked().Bots
	if bots.MaxThinkMillis <= bots.MinThinkMillis {
		return time.Duration(bots.MinThinkMillis) * time.Millisecond
	}
	millis := bots.MinThinkMillis + r.rng.Intn(bots.MaxThinkMillis-bots.MinThinkMillis+1)
	return time.Duration(millis) * time.Millisecond
}

// botAwakeLocked 重新上鎖後確認機器人仍該行動：階段沒換、人還活著
func (r *Room) botAwakeLocked(bot *BotPlayer, seq int, phase game.Phase) *game.Participant {
	if seq != r.phaseSeq || r.status != RoomStatusRunning || r.session == nil {
		return nil
	}
	if r.session.Phase != phase {
		return nil
	}
	p := r.participantLocked(bot.SeatIndex)
	if p == nil || !p.Alive {
		return nil
	}
	return p
}

func (r *Room) runBotNight(bot *BotPlayer, seq int, delay time.Duration) {
	time.Sleep(delay)

	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.botAwakeLocked(bot, seq, game.PhaseNight)
	if p == nil {
		return
	}
	for _, act := range r.planBotNightLocked(p) {
		if err := r.session.QueueAction(act); err != nil {
			return
		}
	}
}

func (r *Room) runBotVote(bot *BotPlayer, seq int, delay time.Duration) {
	time.Sleep(delay)

	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.botAwakeLocked(bot, seq, game.PhaseDayVote)
	if p == nil {
		return
	}

	if r.rng.Intn(4) == 0 {
		_ = r.session.CastVote(p.Seat, game.AbstainVote)
		return
	}
	exclude := game.Faction("")
	if p.Faction == game.FactionMafia || p.Faction == game.FactionCult {
		exclude = p.Faction
	}
	targets := r.botTargetsLocked(p.Seat, exclude)
	if len(targets) == 0 {
		_ = r.session.CastVote(p.Seat, game.AbstainVote)
		return
	}
	_ = r.session.CastVote(p.Seat, targets[r.rng.Intn(len(targets))])
}

func (r *Room) runBotVerdict(bot *BotPlayer, seq int, delay time.Duration) {
	time.Sleep(delay)

	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.botAwakeLocked(bot, seq, game.PhaseDayFinal)
	if p == nil {
		return
	}
	accused, ok := r.session.Accused()
	if !ok {
		return
	}

	verdict := game.VerdictGuilty
	switch {
	case accused == p.Seat:
		verdict = game.VerdictInnocent
	case r.isBotAllyLocked(p, accused):
		verdict = game.VerdictInnocent
	case r.rng.Intn(3) == 0:
		verdict = game.VerdictInnocent
	}
	_ = r.session.CastVerdict(p.Seat, verdict)
}

// isBotAllyLocked 判斷被告是否為同組織成員，組織型機器人會護短
func (r *Room) isBotAllyLocked(p *game.Participant, seat int) bool {
	if p.Faction != game.FactionMafia && p.Faction != game.FactionCult {
		return false
	}
	target := r.participantLocked(seat)
	return target != nil && target.Faction == p.Faction
}

// planBotNightLocked 依身分決定當夜行動；回傳空切片代表按兵不動
func (r *Room) planBotNightLocked(p *game.Participant) []game.NightAction {
	mk := func(target int, kind game.ActionKind) game.NightAction {
		return game.NightAction{Actor: p.Seat, Target: target, Kind: kind, DeclaredRole: p.Role}
	}
	pick := func(targets []int) (int, bool) {
		if len(targets) == 0 {
			return -1, false
		}
		return targets[r.rng.Intn(len(targets))], true
	}

	switch p.Role {
	case game.RoleJailor:
		target, ok := pick(r.botTargetsLocked(p.Seat, ""))
		if !ok {
			return nil
		}
		kind := game.ActionJail
		if p.ExecuteLeft && r.rng.Intn(5) == 0 {
			kind = game.ActionExecute
		}
		return []game.NightAction{mk(target, kind)}

	case game.RoleDoctor:
		// 半數夜晚守自己，其餘夜晚救人
		if r.rng.Intn(2) == 0 {
			return []game.NightAction{mk(p.Seat, game.ActionHeal)}
		}
		target, ok := pick(r.botTargetsLocked(p.Seat, ""))
		if !ok {
			target = p.Seat
		}
		return []game.NightAction{mk(target, game.ActionHeal)}

	case game.RoleBodyguard:
		target, ok := pick(r.botTargetsLocked(p.Seat, ""))
		if !ok {
			return nil
		}
		return []game.NightAction{mk(target, game.ActionGuard)}

	case game.RoleVigilante:
		if r.rng.Intn(2) != 0 {
			return nil
		}
		target, ok := pick(r.botTargetsLocked(p.Seat, ""))
		if !ok {
			return nil
		}
		return []game.NightAction{mk(target, game.ActionShoot)}

	case game.RoleGodfather, game.RoleMafioso:
		if r.designatedMafiaKillerLocked() != p.Seat {
			return nil
		}
		target, ok := pick(r.botTargetsLocked(p.Seat, game.FactionMafia))
		if !ok {
			return nil
		}
		return []game.NightAction{mk(target, game.ActionKill)}

	case game.RoleBeastman:
		if r.designatedMafiaKillerLocked() != p.Seat {
			return nil
		}
		target, ok := pick(r.botTargetsLocked(p.Seat, game.FactionMafia))
		if !ok {
			return nil
		}
		return []game.NightAction{mk(target, game.ActionBeastKill)}

	case game.RoleJanitor:
		if r.rng.Intn(2) != 0 {
			return nil
		}
		target, ok := pick(r.botTargetsLocked(p.Seat, game.FactionMafia))
		if !ok {
			return nil
		}
		return []game.NightAction{mk(target, game.ActionClean)}

	case game.RoleSpy, game.RoleFanatic:
		if p.Contacted {
			return nil
		}
		target, ok := pick(r.botTargetsLocked(p.Seat, ""))
		if !ok {
			return nil
		}
		return []game.NightAction{mk(target, game.ActionContact)}

	case game.RoleCultLeader:
		target, ok := pick(r.botTargetsLocked(p.Seat, game.FactionCult))
		if !ok {
			return nil
		}
		return []game.NightAction{mk(target, game.ActionConvert)}

	case game.RoleCupid:
		if r.loversBoundLocked() {
			return nil
		}
		targets := r.botTargetsLocked(p.Seat, "")
		if len(targets) < 2 {
			return nil
		}
		i := r.rng.Intn(len(targets))
		j := r.rng.Intn(len(targets) - 1)
		if j >= i {
			j++
		}
		return []game.NightAction{mk(targets[i], game.ActionPair), mk(targets[j], game.ActionPair)}

	case game.RoleSerialKiller, game.RoleArsonist:
		target, ok := pick(r.botTargetsLocked(p.Seat, ""))
		if !ok {
			return nil
		}
		return []game.NightAction{mk(target, game.ActionStab)}
	}
	return nil
}

// botTargetsLocked 收集可選目標；excludeFaction 非空時跳過該陣營
func (r *Room) botTargetsLocked(self int, excludeFaction game.Faction) []int {
	targets := make([]int, 0, len(r.session.Players))
	for _, p := range r.session.Players {
		if !p.Alive || p.Seat == self {
			continue
		}
		if excludeFaction != "" && p.Faction == excludeFaction {
			continue
		}
		targets = append(targets, p.Seat)
	}
	return targets
}

// designatedMafiaKillerLocked 決定今晚代表黑手黨出刀的座位：
// 教父優先，其次獸化人，再來普通殺手，避免機器人各自為政
func (r *Room) designatedMafiaKillerLocked() int {
	for _, role := range []game.Role{game.RoleGodfather, game.RoleBeastman, game.RoleMafioso} {
		for _, p := range r.session.Players {
			if p.Alive && p.Role == role && p.Faction == game.FactionMafia {
				return p.Seat
			}
		}
	}
	return -1
}

func (r *Room) loversBoundLocked() bool {
	for _, p := range r.session.Players {
		if _, ok := r.session.Lover(p.Seat); ok {
			return true
		}
	}
	return false
}
