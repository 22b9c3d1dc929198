package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"redchips.ai/internal/persistence/chipfile"
	"redchips.ai/internal/persistence/indexdb"
	persistlog "redchips.ai/internal/persistence/log"
	"redchips.ai/internal/sim/circuit"
	"redchips.ai/internal/sim/circuit/kinds"
	"redchips.ai/internal/sim/config"
	"redchips.ai/internal/sim/world"
	"redchips.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		configPath = flag.String("config", "./configs/config.yaml", "config path")
		dataDir    = flag.String("data", "", "runtime data directory (overrides config)")
	)
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load(*configPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Infof("config not found (%s); using defaults", *configPath)
			cfg = config.Defaults()
		} else {
			logger.Fatalf("load config: %v", err)
		}
	}
	if *dataDir != "" {
		cfg.Data.Dir = *dataDir
	}
	_ = os.MkdirAll(cfg.Data.Dir, 0o755)

	mats, err := resolveMaterials(cfg.Materials)
	if err != nil {
		logger.Fatalf("resolve materials: %v", err)
	}

	w := world.New(logger, cfg.World.Height, cfg.World.BoundaryR)
	table := kinds.Default()
	reg := circuit.NewRegistry(logger, w, mats, table)
	w.SetRedstoneHandler(reg.RedstoneChange)

	reg.SetStore(chipfile.New(filepath.Join(cfg.Data.Dir, "circuits.dat")))

	if !cfg.Data.DisableDB {
		idx, err := indexdb.OpenSQLite(filepath.Join(cfg.Data.Dir, "index.db"))
		if err != nil {
			logger.Fatalf("open index db: %v", err)
		}
		defer idx.Close()
		reg.SetJournal(idx)
	}

	if cfg.Data.TraceLog {
		tl := persistlog.NewTraceLogger(cfg.Data.Dir)
		defer tl.Close()
		reg.SetTraceSink(tl)
	}

	if err := reg.Load(); err != nil {
		logger.Warnf("load circuits: %v", err)
	}

	eng := newEngine(w, reg, table)
	go eng.run(time.Second / time.Duration(cfg.TickRateHz))

	wsServer := ws.NewServer(eng, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.Handle("/v1/ws", wsServer.Handler())
	mux.HandleFunc("/v1/circuits", eng.handleCircuits)
	mux.HandleFunc("/v1/world", eng.handleWorld)
	mux.HandleFunc("/v1/act", eng.handleAct)
	mux.HandleFunc("/v1/debuggers", eng.handleDebuggers)

	srv := &http.Server{Addr: *addr, Handler: mux}
	go func() {
		logger.Infof("listening on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	eng.stop()
	logger.Info("bye")
}

func resolveMaterials(m config.Materials) (circuit.Materials, error) {
	var out circuit.Materials
	for _, f := range []struct {
		name string
		dst  *uint16
	}{
		{m.Body, &out.Body},
		{m.Input, &out.Input},
		{m.Output, &out.Output},
		{m.Interface, &out.Interface},
		{m.Sign, &out.Sign},
		{m.Wire, &out.Wire},
	} {
		id, ok := world.BlockID(f.name)
		if !ok {
			return out, &unknownBlockError{name: f.name}
		}
		*f.dst = id
	}
	return out, nil
}

type unknownBlockError struct{ name string }

func (e *unknownBlockError) Error() string { return "unknown block " + e.name }

// engine owns the simulation goroutine. Everything that touches the world
// or the registry runs on it; other goroutines cross over through Post.
type engine struct {
	world *world.World
	reg   *circuit.Registry
	table *kinds.Table

	inbox chan func()
	done  chan struct{}
	quit  chan struct{}

	tick atomic.Uint64
}

func newEngine(w *world.World, reg *circuit.Registry, table *kinds.Table) *engine {
	return &engine{
		world: w,
		reg:   reg,
		table: table,
		inbox: make(chan func(), 256),
		done:  make(chan struct{}),
		quit:  make(chan struct{}),
	}
}

func (e *engine) run(tickEvery time.Duration) {
	defer close(e.done)
	ticker := time.NewTicker(tickEvery)
	defer ticker.Stop()
	for {
		select {
		case <-e.quit:
			if err := e.reg.Save(); err != nil {
				logrus.Warnf("final save: %v", err)
			}
			return
		case fn := <-e.inbox:
			fn()
		case <-ticker.C:
			e.world.Step()
			e.tick.Store(e.world.Tick())
		}
	}
}

func (e *engine) stop() {
	close(e.quit)
	<-e.done
}

// Post hands fn to the simulation goroutine. Once the loop has exited the
// closure is dropped; late HTTP or ws traffic must not block on a dead inbox.
func (e *engine) Post(fn func()) {
	select {
	case e.inbox <- fn:
	case <-e.done:
	}
}

func (e *engine) Registry() *circuit.Registry { return e.reg }
func (e *engine) KindNames() []string         { return e.table.Names() }
func (e *engine) Tick() uint64                { return e.tick.Load() }

// call runs fn on the simulation goroutine and waits for it, returning
// early if the loop shuts down first.
func (e *engine) call(fn func()) {
	donech := make(chan struct{})
	select {
	case e.inbox <- func() {
		fn()
		close(donech)
	}:
	case <-e.done:
		return
	}
	select {
	case <-donech:
	case <-e.done:
	}
}

func (e *engine) handleCircuits(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var list []circuit.Info
	e.call(func() { list = e.reg.List() })
	if q := r.URL.Query().Get("near"); q != "" {
		pos, ok := parsePos(q)
		if !ok {
			http.Error(rw, "bad near coordinate", http.StatusBadRequest)
			return
		}
		sort.SliceStable(list, func(i, j int) bool {
			return world.Manhattan(list[i].Activation, pos) < world.Manhattan(list[j].Activation, pos)
		})
	}
	rw.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rw).Encode(list)
}

func parsePos(s string) (world.Vec3i, bool) {
	var v world.Vec3i
	if _, err := fmt.Sscanf(s, "%d,%d,%d", &v.X, &v.Y, &v.Z); err != nil {
		return v, false
	}
	return v, true
}

type signInfo struct {
	Pos  world.Vec3i `json:"pos"`
	Text string      `json:"text"`
}

type worldInfo struct {
	Tick         uint64           `json:"tick"`
	LoadedChunks []world.ChunkKey `json:"loaded_chunks"`
	Signs        []signInfo       `json:"signs"`
}

func (e *engine) handleWorld(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var info worldInfo
	e.call(func() {
		info.Tick = e.world.Tick()
		info.LoadedChunks = e.world.Chunks().LoadedChunkKeys()
		for _, p := range e.world.SortedSignPositions() {
			info.Signs = append(info.Signs, signInfo{Pos: p, Text: e.world.SignText(p)})
		}
	})
	rw.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rw).Encode(info)
}

type actRequest struct {
	Action string `json:"action"` // set_power | set_block | set_sign | right_click | break
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Z      int    `json:"z"`
	Level  int    `json:"level,omitempty"`
	Text   string `json:"text,omitempty"`
}

type actResponse struct {
	OK       bool     `json:"ok"`
	Messages []string `json:"messages,omitempty"`
	Error    string   `json:"error,omitempty"`
}

type collectSender struct{ msgs []string }

func (s *collectSender) SendMessage(msg string) { s.msgs = append(s.msgs, msg) }

func (e *engine) handleAct(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req actRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(rw, "bad request", http.StatusBadRequest)
		return
	}
	pos := world.Vec3i{X: req.X, Y: req.Y, Z: req.Z}
	sender := &collectSender{}
	resp := actResponse{OK: true}

	e.call(func() {
		switch req.Action {
		case "set_power":
			e.world.SetPower(pos, req.Level)
		case "set_block":
			id, ok := world.BlockID(req.Text)
			if !ok {
				resp = actResponse{Error: "unknown block"}
				return
			}
			e.world.SetBlock(pos, id)
		case "set_sign":
			e.world.SetBlock(pos, e.reg.Materials().Sign)
			e.world.SetSignText(pos, req.Text)
		case "right_click":
			if _, err := e.reg.RightClick(pos, sender); err != nil {
				resp = actResponse{Error: err.Error()}
			}
		case "break":
			e.world.SetBlock(pos, world.Air)
			e.reg.BlockBreak(pos, sender)
		default:
			resp = actResponse{Error: "unknown action"}
		}
	})

	resp.Messages = sender.msgs
	if resp.Error != "" {
		resp.OK = false
	}
	rw.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rw).Encode(resp)
}

type debuggersRequest struct {
	SessionID string `json:"session_id"`
	Paused    bool   `json:"paused"`
}

func (e *engine) handleDebuggers(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req debuggersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		http.Error(rw, "bad request", http.StatusBadRequest)
		return
	}
	e.call(func() {
		if req.Paused {
			e.reg.PauseDebugger(req.SessionID)
		} else {
			e.reg.ResumeDebugger(req.SessionID)
		}
	})
	rw.WriteHeader(http.StatusNoContent)
}
