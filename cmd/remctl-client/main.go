// Command remctl-client is a CLI test client for the reference demo
// transport (internal/wire) — it speaks that bare, unauthenticated framing
// only, never the production remctl wire protocol.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/duskcore/remctld/internal/wire"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:4373", "demo transport address")
	user := flag.String("user", os.Getenv("USER"), "principal name to present")
	protocol := flag.Int("protocol", 2, "wire protocol version (1 or >=2)")
	flag.Parse()

	log := buildLogger()
	log = log.Named("main")

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: remctl-client [-addr=host:port] [-user=name] [-protocol=N] <command> [subcommand] [args...]")
		os.Exit(2)
	}

	chunks := make([][]byte, len(args))
	for i, a := range args {
		chunks[i] = []byte(a)
	}

	conn, err := wire.Dial(*addr, *user, *protocol, chunks)
	if err != nil {
		log.Fatal("dial failed", zap.Error(err), zap.String("addr", *addr))
	}
	defer conn.Close()

	for {
		resp, err := wire.ReadResponse(conn)
		if err != nil {
			if err == io.EOF {
				return
			}
			log.Fatal("read failed", zap.Error(err))
		}

		switch resp.Kind {
		case "output":
			os.Stdout.Write(resp.Data)
		case "output_v1":
			os.Stdout.Write(resp.Data)
			fmt.Printf("exit status: %d\n", resp.Status)
			return
		case "status":
			fmt.Printf("exit status: %d\n", resp.Status)
			return
		case "error":
			fmt.Fprintf(os.Stderr, "error %d: %s\n", resp.ErrorCode, resp.Message)
			return
		}
	}
}

func buildLogger() *zap.Logger {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true
	return zap.Must(logConfig.Build())
}
