package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"ALAPI_TOKEN", "ALAPI_URL", "ALAPI_TIMEOUT_SECONDS",
		"BRIEFING_SCHEDULE", "BRIEFING_TIMEZONE", "BRIEFING_EMPTY_NEWS_POLICY",
		"LOG_LEVEL", "LOG_FORMAT", "ENV", "PORT",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.AlapiURL != "https://v3.alapi.cn/api/zaobao" {
		t.Errorf("unexpected default endpoint: %s", cfg.AlapiURL)
	}
	if cfg.AlapiTimeout != 10 {
		t.Errorf("expected default timeout 10, got %d", cfg.AlapiTimeout)
	}
	if cfg.BriefingSchedule != "0 7 * * *" {
		t.Errorf("unexpected default schedule: %s", cfg.BriefingSchedule)
	}
	if cfg.BriefingTimezone != "Asia/Shanghai" {
		t.Errorf("unexpected default timezone: %s", cfg.BriefingTimezone)
	}
	if cfg.EmptyNewsPolicy != "placeholder" {
		t.Errorf("unexpected default empty-news policy: %s", cfg.EmptyNewsPolicy)
	}
	if cfg.Port != "8080" {
		t.Errorf("unexpected default port: %s", cfg.Port)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ALAPI_TOKEN", "tok-123")
	t.Setenv("ALAPI_TIMEOUT_SECONDS", "5")
	t.Setenv("BRIEFING_EMPTY_NEWS_POLICY", "fail")
	t.Setenv("BRIEFING_NEWS_BULLET", "- ")

	cfg := Load()

	if cfg.AlapiToken != "tok-123" {
		t.Errorf("expected token override, got %s", cfg.AlapiToken)
	}
	if cfg.AlapiTimeout != 5 {
		t.Errorf("expected timeout 5, got %d", cfg.AlapiTimeout)
	}
	if cfg.EmptyNewsPolicy != "fail" {
		t.Errorf("expected fail policy, got %s", cfg.EmptyNewsPolicy)
	}
	if cfg.NewsBullet != "- " {
		t.Errorf("expected bullet override, got %q", cfg.NewsBullet)
	}
}

func TestLoadInvalidTimeoutFallsBack(t *testing.T) {
	t.Setenv("ALAPI_TIMEOUT_SECONDS", "not-a-number")

	cfg := Load()

	if cfg.AlapiTimeout != 10 {
		t.Errorf("expected fallback timeout 10, got %d", cfg.AlapiTimeout)
	}
}
