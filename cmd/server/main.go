package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/adstatus-next/internal/app"
	"github.com/adstatus-next/internal/cache"
	"github.com/adstatus-next/internal/config"
	"github.com/adstatus-next/internal/logger"
	"github.com/adstatus-next/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiDim    = "\033[2m"
	ansiGreen  = "\033[32m"
	ansiCyan   = "\033[36m"
	ansiYellow = "\033[33m"
)

func main() {
	// 解析命令行参数
	var mode string
	flag.StringVar(&mode, "mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.Parse()
	mode = strings.ToLower(strings.TrimSpace(mode))
	if !app.IsValidMode(mode) {
		fmt.Fprintf(os.Stderr, "未知启动模式 %q，可选: all, api, worker\n", mode)
		os.Exit(2)
	}

	printStartupBanner(mode)

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if isWeakSecret(cfg.JWT.SecretKey) {
		if cfg.Server.Mode == "release" {
			stdLog.Fatalf("JWT secret 过弱或仍为默认值，请在生产环境中配置强随机密钥")
		}
		stdLog.Printf("警告: JWT secret 过弱或仍为默认值，建议在生产环境中更换")
	}

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, cfg.Server.Mode != "release"); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	// 默认管理员：仅在设置手机号时初始化
	if phone := strings.TrimSpace(os.Getenv("ADS_DEFAULT_ADMIN_PHONE")); phone != "" {
		if _, err := models.InitDefaultAdmin(models.DB, models.DefaultAdminSeed{
			Phone:        phone,
			FullName:     os.Getenv("ADS_DEFAULT_ADMIN_NAME"),
			ReferralCode: "ADMIN-" + lastDigits(phone, 6),
			Currency:     cfg.Campaign.Currency,
		}); err != nil {
			stdLog.Printf("警告: 初始化默认管理员失败: %v", err)
		}
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	runErr := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	})
	_ = cache.Close()
	_ = logger.S().Sync()
	if runErr != nil {
		stdLog.Fatalf("服务运行失败: %v", runErr)
	}
}

func printStartupBanner(mode string) {
	fmt.Println(ansiCyan + "    _      _   ___ _        _             " + ansiReset)
	fmt.Println(ansiCyan + "   /_\\  __| | / __| |_ __ _| |_ _  _ ___ " + ansiReset)
	fmt.Println(ansiCyan + "  / _ \\/ _` | \\__ \\  _/ _` |  _| || (_-< " + ansiReset)
	fmt.Println(ansiCyan + " /_/ \\_\\__,_| |___/\\__\\__,_|\\__|\\_,_/__/ " + ansiReset)
	fmt.Println(ansiGreen + ansiBold + "AdStatus API" + ansiReset + ansiYellow + "  mode=" + mode + ansiReset)
	fmt.Println(ansiDim + "--------------------------------------------------------------" + ansiReset)
}

func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	normalized := strings.ToLower(secret)
	return strings.Contains(normalized, "change-me") ||
		strings.Contains(normalized, "change-in-production") ||
		strings.Contains(normalized, "your-secret-key")
}

func lastDigits(phone string, n int) string {
	digits := make([]rune, 0, len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) > n {
		digits = digits[len(digits)-n:]
	}
	return string(digits)
}
