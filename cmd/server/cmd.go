package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/palemoky/atlas/internal/config"
	"github.com/palemoky/atlas/internal/dictionary"
	"github.com/palemoky/atlas/internal/logger"
	"github.com/palemoky/atlas/internal/server"
)

// options 命令行参数，设置后覆盖配置文件
type options struct {
	configPath string
	host       string
	port       int
	redisAddr  string
	dictionary string
	logFile    string
	publicURL  string
}

func newCmd(opts *options) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("ATLAS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:     "atlas-server",
		Short:   "Real-time multiplayer place-name chain game server.",
		Args:    cobra.NoArgs,
		Version: releaseVersion,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Flags(), opts)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&opts.configPath, "config", "c", "configs/config.yaml", "配置文件路径 (env: ATLAS_CONFIG)")
	fs.StringVar(&opts.host, "host", "", "监听地址 (env: ATLAS_HOST)")
	fs.IntVarP(&opts.port, "port", "p", 0, "监听端口 (env: ATLAS_PORT)")
	fs.StringVar(&opts.redisAddr, "redis-addr", "", "Redis 地址，为空则禁用 (env: ATLAS_REDIS_ADDR)")
	fs.StringVar(&opts.dictionary, "dictionary", "", "地名词典文件，为空则使用内置词典 (env: ATLAS_DICTIONARY)")
	fs.StringVar(&opts.logFile, "log-file", "", "日志文件 (env: ATLAS_LOG_FILE)")
	fs.StringVar(&opts.publicURL, "public-url", "", "邀请链接中的前端地址 (env: ATLAS_PUBLIC_URL)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

// loadConfig 加载配置文件（不存在时使用默认配置），再应用显式设置的参数
func loadConfig(fs *pflag.FlagSet, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		log.Printf("配置文件 %s 不存在，使用默认配置", opts.configPath)
		cfg = config.Default()
	}

	if fs.Changed("host") {
		cfg.Server.Host = opts.host
	}
	if fs.Changed("port") {
		cfg.Server.Port = opts.port
	}
	if fs.Changed("redis-addr") {
		cfg.Redis.Addr = opts.redisAddr
	}
	if fs.Changed("dictionary") {
		cfg.Dictionary.Path = opts.dictionary
	}
	if fs.Changed("log-file") {
		cfg.Server.LogFile = opts.logFile
	}
	if fs.Changed("public-url") {
		cfg.Server.PublicURL = opts.publicURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	if err := logger.Init(cfg.Server.LogFile); err != nil {
		return err
	}
	defer logger.Close()

	dict := dictionary.Default()
	if cfg.Dictionary.Path != "" {
		loaded, err := dictionary.Load(cfg.Dictionary.Path)
		if err != nil {
			return err
		}
		dict = loaded
	}
	log.Printf("📚 地名词典已加载: %d 个地名", dict.Len())

	srv, err := server.NewServer(cfg, dict)
	if err != nil {
		return fmt.Errorf("创建服务器失败: %w", err)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Println("🌍 Atlas 服务器启动中...")
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// 第二次信号立即关闭
	stop()
	force, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Println("正在优雅关闭服务器...")
	done := make(chan struct{})
	go func() {
		srv.GracefulShutdown(cfg.Game.ShutdownTimeoutDuration())
		close(done)
	}()

	select {
	case <-done:
	case <-force.Done():
		log.Println("⚠️ 收到第二次信号，立即关闭")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		srv.Shutdown(shutdownCtx)
	}
	return <-errCh
}
