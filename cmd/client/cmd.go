package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/palemoky/atlas/internal/bot"
	"github.com/palemoky/atlas/internal/dictionary"
	"github.com/palemoky/atlas/internal/transport"
)

// options 机器人客户端参数
type options struct {
	server     string
	room       string
	playerID   string
	name       string
	dictionary string
	autoStart  int
	proto      bool
}

func newCmd(opts *options) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("ATLAS_BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "atlas-bot",
		Short: "Joins an Atlas room and plays automatically.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&opts.server, "server", "s", "localhost:4000", "服务器地址 (env: ATLAS_BOT_SERVER)")
	fs.StringVarP(&opts.room, "room", "r", "", "房间 ID (env: ATLAS_BOT_ROOM)")
	fs.StringVar(&opts.playerID, "player-id", "", "玩家 ID，为空时随机生成 (env: ATLAS_BOT_PLAYER_ID)")
	fs.StringVarP(&opts.name, "name", "n", "", "昵称，为空时使用玩家 ID (env: ATLAS_BOT_NAME)")
	fs.StringVar(&opts.dictionary, "dictionary", "", "地名词典文件，为空则使用内置词典 (env: ATLAS_BOT_DICTIONARY)")
	fs.IntVar(&opts.autoStart, "auto-start", 0, "房主在活跃玩家达到该数量后开始游戏 (env: ATLAS_BOT_AUTO_START)")
	fs.BoolVar(&opts.proto, "proto", false, "使用 protobuf 二进制帧 (env: ATLAS_BOT_PROTO)")
	_ = cmd.MarkFlagRequired("room")

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

// serverURL 将 host:port 或完整地址转换为 WebSocket 地址
func serverURL(addr string) string {
	if strings.HasPrefix(addr, "ws://") || strings.HasPrefix(addr, "wss://") {
		return addr
	}
	return fmt.Sprintf("ws://%s/ws", strings.TrimSuffix(addr, "/"))
}

func run(ctx context.Context, opts *options) error {
	if opts.playerID == "" {
		opts.playerID = "bot-" + uuid.NewString()[:8]
	}
	if opts.name == "" {
		opts.name = opts.playerID
	}

	dict := dictionary.Default()
	if opts.dictionary != "" {
		loaded, err := dictionary.Load(opts.dictionary)
		if err != nil {
			return err
		}
		dict = loaded
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := transport.NewClient(serverURL(opts.server), opts.proto)
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Connect(dialCtx); err != nil {
		return fmt.Errorf("连接服务器失败: %w", err)
	}
	defer client.Close()

	b := bot.New(bot.Config{
		RoomID:    opts.room,
		PlayerID:  opts.playerID,
		Name:      opts.name,
		AutoStart: opts.autoStart,
	}, client, dict)
	if err := b.Join(); err != nil {
		return err
	}
	log.Printf("🤖 %s 已加入房间 %s", opts.name, opts.room)

	result, err := b.Run(ctx, client.Receive(), client.Done())
	if err != nil {
		return err
	}

	switch {
	case result.Stopped:
		log.Println("🛑 房主终止了游戏")
	case result.Winner == nil:
		log.Println("🏁 游戏结束，无人幸存")
	default:
		log.Printf("🏆 游戏结束，胜者: %s", result.Winner.Name)
	}
	log.Printf("📍 本局共接龙 %d 个地名，延迟 %v", len(result.Places), client.Latency())
	return nil
}
