package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/adstatus-next/internal/config"
	"github.com/adstatus-next/internal/logger"
	"github.com/adstatus-next/internal/models"
	"github.com/adstatus-next/internal/repository"
	"github.com/adstatus-next/internal/service"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "seed",
		Usage: "初始化 AdStatus 演示数据",
		Commands: []*cli.Command{
			{
				Name:  "admin",
				Usage: "创建或启用管理员档案",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "phone", Aliases: []string{"p"}, Usage: "管理员手机号", EnvVars: []string{"ADS_DEFAULT_ADMIN_PHONE"}, Required: true},
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "管理员姓名", Value: "Administrator"},
				},
				Action: seedAdmin,
			},
			{
				Name:  "deposit",
				Usage: "为指定档案入账一笔充值",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "profile", Usage: "档案 ID", Required: true},
					&cli.StringFlag{Name: "amount", Aliases: []string{"a"}, Usage: "金额，例如 50000", Required: true},
					&cli.StringFlag{Name: "method", Usage: "支付方式", Value: "mobile_money"},
					&cli.StringFlag{Name: "ref", Usage: "外部流水号"},
				},
				Action: seedDeposit,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func bootstrap() (*config.Config, error) {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, false); err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := models.AutoMigrate(); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return cfg, nil
}

func seedAdmin(c *cli.Context) error {
	cfg, err := bootstrap()
	if err != nil {
		return err
	}
	wallets := service.NewWalletService(repository.NewWalletRepository(models.DB), cfg.Campaign.Currency)
	referrals, err := service.NewReferralService(repository.NewReferralRepository(models.DB), wallets, cfg.Campaign)
	if err != nil {
		return err
	}
	profile, err := models.InitDefaultAdmin(models.DB, models.DefaultAdminSeed{
		Phone:        c.String("phone"),
		FullName:     c.String("name"),
		ReferralCode: referrals.NewCode(),
		Currency:     cfg.Campaign.Currency,
	})
	if err != nil {
		return err
	}
	logger.Infow("seed_admin_ready", "profile_id", profile.ID, "phone", c.String("phone"))
	return nil
}

func seedDeposit(c *cli.Context) error {
	cfg, err := bootstrap()
	if err != nil {
		return err
	}
	amount, err := models.ParseMoney(strings.TrimSpace(c.String("amount")))
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	profileID := c.Uint("profile")
	if profileID == 0 {
		return errors.New("profile is required")
	}
	wallets := service.NewWalletService(repository.NewWalletRepository(models.DB), cfg.Campaign.Currency)
	account, txn, err := wallets.Deposit(service.WalletDepositInput{
		ProfileID:     profileID,
		Amount:        amount,
		PaymentMethod: c.String("method"),
		ExternalRef:   c.String("ref"),
		Remark:        "seed",
	})
	if err != nil {
		return err
	}
	logger.Infow("seed_deposit_done",
		"profile_id", profileID,
		"transaction_id", txn.ID,
		"balance", account.Balance.String(),
		"currency", account.Currency,
	)
	return nil
}
