package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, zerolog.WarnLevel)
	t.Cleanup(func() { SetOutput(&bytes.Buffer{}, zerolog.InfoLevel) })

	Infof("hidden %d", 1)
	Warnf("shown %s", "warn")
	Errorf("shown %s", "error")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info 日志不应输出: %s", out)
	}
	if !strings.Contains(out, "shown warn") || !strings.Contains(out, "shown error") {
		t.Fatalf("warn/error 日志缺失: %s", out)
	}
}

func TestInitRejectsBadLevel(t *testing.T) {
	if err := Init(Config{Level: "loud"}); err == nil {
		t.Fatalf("非法级别应返回错误")
	}
	if err := Init(Config{Level: "debug", Format: "json", Output: "stdout"}); err != nil {
		t.Fatalf("合法配置不应报错: %v", err)
	}
}
