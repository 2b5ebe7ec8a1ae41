package server

import (
	"fmt"
	"log"
	"time"

	"shadowtown/internal/config"
	"shadowtown/internal/game"
)

// 每個房間只有一條計時線：schedulePhaseLocked 對當前階段佈雷，
// 到期的計時器透過 onPhaseExpired 回到鎖內推進引擎。phaseSeq 擋掉
// 過期重播，phaseStop 在房間收攤時喚醒所有還在等的計時器。

func (r *Room) rulesLocked() config.Rules {
	if r.hub != nil {
		return r.hub.rules
	}
	return config.Default()
}

func (r *Room) phaseDurationLocked(p game.Phase) time.Duration {
	phases := r.rulesLocked().Phases
	seconds := phases.DiscussSeconds
	switch p {
	case game.PhaseNight:
		seconds = phases.NightSeconds
	case game.PhaseDayDiscuss:
		seconds = phases.DiscussSeconds
	case game.PhaseDayVote:
		seconds = phases.VoteSeconds
	case game.PhaseDayDefence:
		seconds = phases.DefenceSeconds
	case game.PhaseDayFinal:
		seconds = phases.FinalSeconds
	}
	return time.Duration(seconds) * time.Second
}

func (r *Room) remainingSecondsLocked() int {
	if r.phaseDeadline.IsZero() {
		return 0
	}
	remain := time.Until(r.phaseDeadline)
	if remain <= 0 {
		return 0
	}
	return int((remain + time.Second - 1) / time.Second)
}

// schedulePhaseLocked 為引擎當前階段佈署計時器並通知所有人
func (r *Room) schedulePhaseLocked() {
	if r.status != RoomStatusRunning || r.session == nil || r.phaseStop == nil {
		return
	}

	duration := r.phaseDurationLocked(r.session.Phase)
	r.phaseSeq++
	r.phaseDeadline = time.Now().Add(duration)

	r.broadcastPhaseLocked()
	r.scheduleBotsLocked()
	go r.runPhaseClock(r.phaseSeq, duration, r.phaseStop)
}

func (r *Room) runPhaseClock(seq int, duration time.Duration, stop <-chan struct{}) {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-timer.C:
		r.onPhaseExpired(seq)
	case <-stop:
	}
}

func (r *Room) onPhaseExpired(seq int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if seq != r.phaseSeq || r.status != RoomStatusRunning || r.session == nil {
		return
	}
	r.advancePhaseLocked()
}

// advancePhaseLocked 推進引擎一個階段，把結算結果整包廣播出去
func (r *Room) advancePhaseLocked() {
	tr, err := r.session.AdvancePhase()
	if err != nil {
		log.Printf("房間 %s 推進階段失敗: %v", r.id, err)
		return
	}
	if tr.Fault != nil {
		log.Printf("房間 %s 結算中斷: %v", r.id, tr.Fault)
		r.broadcastLocked(ServerMessage{Type: "log", Payload: LogPayload{Message: "結算過程出現異常，部分效果可能未生效"}})
	}

	if tr.Night != nil {
		r.broadcastNightLocked(tr.Night)
	}
	if tr.Accusation != nil {
		r.broadcastAccusationLocked(tr.Accusation)
	}
	if tr.Verdict != nil {
		r.broadcastVerdictLocked(tr.Verdict)
	}

	if tr.Ended {
		r.finishGameLocked(tr.Win)
		return
	}

	if tr.To == game.PhaseNight {
		r.broadcastLocked(ServerMessage{Type: "log", Payload: LogPayload{Message: fmt.Sprintf("第 %d 夜降臨，全鎮陷入黑暗", tr.Day)}})
	}
	r.broadcastPublicStateLocked()
	r.schedulePhaseLocked()
}

func (r *Room) broadcastNightLocked(out *game.NightOutcome) {
	r.broadcastLocked(ServerMessage{Type: "day_break", Payload: DayBreakPayload{Day: out.Night, Deaths: out.Deaths}})
	for _, line := range out.Announcements {
		r.broadcastLocked(ServerMessage{Type: "log", Payload: LogPayload{Message: line}})
	}
	for seatIdx, notes := range out.Notices {
		seat := r.getSeatLocked(seatIdx)
		if seat == nil || seat.Client == nil {
			continue
		}
		for _, note := range notes {
			r.sendPrivateInfoLocked(seat.Client, note)
		}
	}
	if out.VisibilityChanged {
		// 接頭或吸收改寫了陣營名單，整桌重新發私人視角
		for _, seat := range r.seats {
			if seat.Client != nil {
				r.sendPrivateStateLocked(seat.Index)
				r.sendFactionMatesLocked(seat.Index)
			}
		}
	}
}

func (r *Room) broadcastAccusationLocked(result *game.AccusationResult) {
	payload := AccusationPayload{Counts: result.Counts}
	if result.Accused >= 0 {
		accused := result.Accused
		payload.Accused = &accused
		if p := r.participantLocked(accused); p != nil {
			payload.Name = p.Name
		}
	}
	r.broadcastLocked(ServerMessage{Type: "accusation", Payload: payload})
	if result.Announcement != "" {
		r.broadcastLocked(ServerMessage{Type: "log", Payload: LogPayload{Message: result.Announcement}})
	}
}

func (r *Room) broadcastVerdictLocked(out *game.VerdictOutcome) {
	r.broadcastLocked(ServerMessage{Type: "verdict", Payload: VerdictResultPayload{
		Accused:  out.Accused,
		Guilty:   out.Guilty,
		Innocent: out.Innocent,
		Lynched:  out.Lynched,
		Death:    out.Death,
	}})
	if out.Announcement != "" {
		r.broadcastLocked(ServerMessage{Type: "log", Payload: LogPayload{Message: out.Announcement}})
	}
}

func (r *Room) buildPhasePayloadLocked() PhaseChangePayload {
	payload := PhaseChangePayload{
		Phase:            string(r.session.Phase),
		PhaseName:        r.session.Phase.String(),
		Day:              r.session.Day,
		RemainingSeconds: r.remainingSecondsLocked(),
	}
	if accused, ok := r.session.Accused(); ok {
		payload.Accused = &accused
	}
	return payload
}

func (r *Room) broadcastPhaseLocked() {
	r.broadcastLocked(ServerMessage{Type: "phase_change", Payload: r.buildPhasePayloadLocked()})
}

// sendPhaseSnapshotLocked 讓重連的玩家立即拿到目前階段與剩餘秒數
func (r *Room) sendPhaseSnapshotLocked(c *Client) {
	if r.status != RoomStatusRunning || r.session == nil {
		return
	}
	c.sendMessage(ServerMessage{Type: "phase_change", Payload: r.buildPhasePayloadLocked()})
}

// shutdown 停掉房間的計時線，hub 把房間移出名單前呼叫
func (r *Room) shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phaseSeq++
	if r.phaseStop != nil {
		close(r.phaseStop)
		r.phaseStop = nil
	}
}
