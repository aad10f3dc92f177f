// Package main provides the full TCAMSim CLI.
// It builds one TCAM instance from a configuration, drives the reference
// scenario through the selected front end, and prints an activity report.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/tcamsim/bank"
	"github.com/sarchlab/tcamsim/config"
	"github.com/sarchlab/tcamsim/engine"
	"github.com/sarchlab/tcamsim/frontend/copro"
	"github.com/sarchlab/tcamsim/frontend/regmap"
	"github.com/sarchlab/tcamsim/priority"
)

var (
	configPath = flag.String("config", "", "Path to configuration JSON file")
	frontend   = flag.String("frontend", "", "Front-end binding: regmap-split, regmap-stream, or copro (overrides config)")
	verbose    = flag.Bool("v", false, "Verbose output (trace engine state transitions)")
)

// driver abstracts the three front-end paths over one operation surface so
// the scenario below runs identically through each.
type driver interface {
	write(addr, data uint32) error
	search(key uint32) (uint32, error)
	status() (uint32, error)
}

func main() {
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	if *frontend != "" {
		cfg.Binding = *frontend
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := log.New()
	logger.SetOutput(os.Stderr)
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.WarnLevel)
	}

	b := bank.New(cfg.Entries, cfg.DataWidth)
	eng := engine.New(b,
		engine.WithLogger(logger),
		engine.WithPriorityEncoder(cfg.PriorityEncoder),
	)

	drv, err := buildDriver(cfg, eng, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building front end: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("TCAM: %d entries, %d-bit keys, %d-bit data, PMA width %d bits\n",
		cfg.Entries, cfg.KeyWidth, cfg.DataWidth, priority.Width(cfg.Entries))
	fmt.Printf("Front end: %s (base 0x%X)\n\n", cfg.Binding, cfg.BaseAddr)

	if err := runScenario(drv); err != nil {
		fmt.Fprintf(os.Stderr, "Scenario failed: %v\n", err)
		os.Exit(1)
	}

	printStats(eng)
}

// buildDriver constructs exactly one front end over the engine.
func buildDriver(cfg *config.Config, eng *engine.Engine, logger *log.Logger) (driver, error) {
	switch cfg.Binding {
	case config.BindingRegmapSplit:
		adapter, err := regmap.New(eng, cfg.BaseAddr, regmap.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return &splitDriver{bus: regmap.NewSplitBus(adapter), base: cfg.BaseAddr}, nil

	case config.BindingRegmapStream:
		adapter, err := regmap.New(eng, cfg.BaseAddr, regmap.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		bus := regmap.NewStreamBus(adapter, 4)
		bus.Start(context.Background())
		return &streamDriver{bus: bus, base: cfg.BaseAddr}, nil

	case config.BindingCopro:
		adapter, err := copro.New(eng, copro.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return &coproDriver{adapter: adapter}, nil

	default:
		return nil, fmt.Errorf("unknown binding %q", cfg.Binding)
	}
}

// runScenario drives the reference traffic: three entry writes, a miss
// search, an overwrite check, and a hit search.
func runScenario(drv driver) error {
	writes := []struct {
		addr uint32
		data uint32
	}{
		{0, 0x12345678},
		{1, 0x87654321},
		{2, 0xDEADBEEF},
	}

	for _, w := range writes {
		if err := drv.write(w.addr, w.data); err != nil {
			return fmt.Errorf("write %d: %w", w.addr, err)
		}
		fmt.Printf("write  addr=%-4d data=0x%08X\n", w.addr, w.data)
	}

	pma, err := drv.search(0x0FFC3201)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	fmt.Printf("search key=0x0FFC3201 -> PMA %d\n", pma)

	pma, err = drv.status()
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}
	fmt.Printf("status               -> PMA %d\n", pma)

	// Overwrite sequence: the final read-back of address 0x10 must
	// reflect the last write.
	overwrite := []struct {
		addr uint32
		data uint32
	}{
		{0x10, 0x00000005},
		{0x00, 0x00000085},
		{0x10, 0x00000105},
	}
	for _, w := range overwrite {
		if err := drv.write(w.addr, w.data); err != nil {
			return fmt.Errorf("write %d: %w", w.addr, err)
		}
		fmt.Printf("write  addr=0x%02X data=0x%08X\n", w.addr, w.data)
	}

	pma, err = drv.search(0x00000105)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	fmt.Printf("search key=0x00000105 -> PMA %d\n", pma)

	return nil
}

func printStats(eng *engine.Engine) {
	stats := eng.Stats()
	fmt.Printf("\nEngine activity:\n")
	fmt.Printf("  Cycles:   %d\n", stats.Cycles)
	fmt.Printf("  Writes:   %d\n", stats.Writes)
	fmt.Printf("  Searches: %d (%d matched)\n", stats.Searches, stats.Matches)
	fmt.Printf("  Statuses: %d\n", stats.Statuses)

	bankStats := eng.Bank().Stats()
	fmt.Printf("Bank activity:\n")
	fmt.Printf("  Writes:   %d\n", bankStats.Writes)
	fmt.Printf("  Compares: %d\n", bankStats.Compares)
}

// splitDriver issues the register protocol over the split-transaction bus.
type splitDriver struct {
	bus  *regmap.SplitBus
	base uint32
}

func (d *splitDriver) transact(isRead bool, offset uint32, data uint32) (uint32, error) {
	err := d.bus.Submit(regmap.Request{IsRead: isRead, Addr: d.base + offset, Data: data})
	if err != nil {
		return 0, err
	}
	resp, ok := d.bus.Collect()
	if !ok {
		return 0, fmt.Errorf("split bus lost a response")
	}
	return resp.Data, resp.Err
}

func (d *splitDriver) write(addr, data uint32) error {
	if _, err := d.transact(false, regmap.RegControl, 0xF0); err != nil {
		return err
	}
	if _, err := d.transact(false, regmap.RegAddress, addr); err != nil {
		return err
	}
	_, err := d.transact(false, regmap.RegWData, data)
	return err
}

func (d *splitDriver) search(key uint32) (uint32, error) {
	if _, err := d.transact(false, regmap.RegControl, regmap.CtrlWEB); err != nil {
		return 0, err
	}
	if _, err := d.transact(false, regmap.RegAddress, key); err != nil {
		return 0, err
	}
	return d.transact(true, regmap.RegStatus, 0)
}

func (d *splitDriver) status() (uint32, error) {
	return d.transact(true, regmap.RegStatus, 0)
}

// streamDriver issues the same register protocol over the streaming bus.
type streamDriver struct {
	bus  *regmap.StreamBus
	base uint32
}

func (d *streamDriver) transact(isRead bool, offset uint32, data uint32) (uint32, error) {
	d.bus.Requests <- regmap.Request{IsRead: isRead, Addr: d.base + offset, Data: data}
	resp := <-d.bus.Responses
	return resp.Data, resp.Err
}

func (d *streamDriver) write(addr, data uint32) error {
	if _, err := d.transact(false, regmap.RegControl, 0xF0); err != nil {
		return err
	}
	if _, err := d.transact(false, regmap.RegAddress, addr); err != nil {
		return err
	}
	_, err := d.transact(false, regmap.RegWData, data)
	return err
}

func (d *streamDriver) search(key uint32) (uint32, error) {
	if _, err := d.transact(false, regmap.RegControl, regmap.CtrlWEB); err != nil {
		return 0, err
	}
	if _, err := d.transact(false, regmap.RegAddress, key); err != nil {
		return 0, err
	}
	return d.transact(true, regmap.RegStatus, 0)
}

func (d *streamDriver) status() (uint32, error) {
	return d.transact(true, regmap.RegStatus, 0)
}

// coproDriver issues custom instructions.
type coproDriver struct {
	adapter *copro.Adapter
}

func (d *coproDriver) write(addr, data uint32) error {
	_, err := d.adapter.Issue(copro.Instruction{
		Funct: copro.FunctWrite,
		SrcA:  copro.PackSrcA(0xF, addr),
		SrcB:  data,
		Rd:    1,
	})
	return err
}

func (d *coproDriver) search(key uint32) (uint32, error) {
	return d.adapter.Issue(copro.Instruction{
		Funct: copro.FunctSearch,
		SrcA:  copro.PackSrcA(0, key),
		Rd:    1,
	})
}

func (d *coproDriver) status() (uint32, error) {
	return d.adapter.Issue(copro.Instruction{
		Funct: copro.FunctStatus,
		Rd:    1,
	})
}
