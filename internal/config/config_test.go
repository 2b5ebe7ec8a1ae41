package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileFallsBackToDefault(t *testing.T) {
	rules, err := Load(filepath.Join(t.TempDir(), "no-such.yaml"))
	if err != nil {
		t.Fatalf("檔案不存在應沿用預設規則，卻回傳錯誤: %v", err)
	}
	if rules != Default() {
		t.Fatalf("預設規則不符: %+v", rules)
	}
}

func TestLoadPartialFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	body := "phases:\n  night_seconds: 15\nbots:\n  min_think_millis: 100\n  max_think_millis: 300\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("寫入測試規則檔失敗: %v", err)
	}

	rules, err := Load(path)
	if err != nil {
		t.Fatalf("載入規則檔失敗: %v", err)
	}
	if rules.Phases.NightSeconds != 15 {
		t.Fatalf("night_seconds 應採用檔案值 15，得到 %d", rules.Phases.NightSeconds)
	}
	if rules.Phases.DiscussSeconds != Default().Phases.DiscussSeconds {
		t.Fatalf("缺漏欄位應補上預設值，得到 %d", rules.Phases.DiscussSeconds)
	}
	if rules.Bots.MinThinkMillis != 100 || rules.Bots.MaxThinkMillis != 300 {
		t.Fatalf("bots 設定不符: %+v", rules.Bots)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	body := "phases:\n  vote_seconds: -3\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("寫入測試規則檔失敗: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("負數秒數應被拒絕")
	}

	body = "bots:\n  min_think_millis: 500\n  max_think_millis: 200\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("寫入測試規則檔失敗: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("max 小於 min 應被拒絕")
	}
}
