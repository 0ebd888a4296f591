// Command remctld runs the command-execution engine behind the reference
// demo transport and a loopback admin API. It is not a production remctl
// daemon: authentication (GSS-API/Kerberos) and the real remctl wire
// protocol are out of scope and are not implemented here.
package main

import (
	"flag"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/duskcore/remctld/internal/acl"
	"github.com/duskcore/remctld/internal/admin"
	"github.com/duskcore/remctld/internal/audit"
	"github.com/duskcore/remctld/internal/config"
	"github.com/duskcore/remctld/internal/dispatch"
	"github.com/duskcore/remctld/internal/wire"
)

func main() {
	confPath := flag.String("conf", "remctld.conf", "path to the rule-table file")
	demoListen := flag.String("demo-listen", "127.0.0.1:4373", "address for the reference demo transport")
	adminListen := flag.String("admin-listen", "127.0.0.1:8222", "address for the loopback admin API")
	maxInFlight := flag.Int64("max-inflight", 64, "maximum concurrently in-flight requests")
	redisAddr := flag.String("redis-addr", "", "optional Redis address for a durable audit stream (empty disables it)")
	flag.Parse()

	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true
	log := zap.Must(logConfig.Build())
	defer log.Sync()
	log = log.Named("main")

	table, err := config.Load(*confPath)
	if err != nil {
		log.Fatal("loading rule table failed", zap.Error(err), zap.String("path", *confPath))
	}
	log.Info("rule table loaded", zap.Int("rules", table.Len()), zap.String("path", *confPath))

	evaluator := acl.NewFileEvaluator()

	var sink audit.Sink = audit.NewZapSink(log, 512)
	if *redisAddr != "" {
		sink = audit.NewRedisSink(*redisAddr, 0, "remctld:audit", log, sink)
	}

	d := dispatch.New(table, evaluator, sink, log, *maxInFlight)

	adminSrv := admin.New(*adminListen, table, d, sink, log, os.Getenv("ENV") == "dev")
	go func() {
		log.Info("admin API listening", zap.String("addr", *adminListen))
		if err := adminSrv.ListenAndServe(); err != nil {
			log.Error("admin API stopped", zap.Error(err))
		}
	}()

	ln, err := wire.Listen(*demoListen, d, log)
	if err != nil {
		log.Fatal("demo transport listen failed", zap.Error(err), zap.String("addr", *demoListen))
	}
	log.Info("demo transport listening", zap.String("addr", *demoListen))

	if err := ln.Serve(); err != nil {
		log.Fatal("demo transport stopped", zap.Error(err))
	}
}
