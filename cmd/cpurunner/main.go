// Command cpurunner drives the emulator core (emu.Machine) against a test ROM,
// watching its serial output for a pass/fail marker. Used for the Blargg and
// mooneye-style conformance suites where a full window isn't wanted.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/dmg-core/gbcore/internal/emu"
)

type writerFunc func(p []byte) (n int, err error)

func (f writerFunc) Write(p []byte) (n int, err error) { return f(p) }

func main() {
	romPath := flag.String("rom", "", "path to ROM (.gb)")
	bootPath := flag.String("bootrom", "", "optional DMG boot ROM to run from 0x0000 until FF50 disables it")
	steps := flag.Int("steps", 5_000_000, "max CPU instructions to run")
	trace := flag.Bool("trace", false, "print PC/opcode per instruction")
	until := flag.String("until", "Passed", "stop when serial output contains this substring (case-insensitive); empty to disable")
	auto := flag.Bool("auto", false, "auto-detect 'Passed' or 'Failed N tests' in serial output and exit with code 0/1")
	timeout := flag.Duration("timeout", 0, "optional wall-clock timeout (e.g. 30s, 2m); 0 disables")
	traceOnFail := flag.Bool("traceOnFail", false, "when -auto detects failure, dump the trapped CPU state")
	serialWindowFlag := flag.Int("serialWindow", 8192, "number of recent serial bytes to retain for diagnostics on fail")
	flag.Parse()

	if *romPath == "" {
		log.Fatal("-rom is required")
	}
	rom, err := os.ReadFile(*romPath)
	if err != nil {
		log.Fatalf("read rom: %v", err)
	}
	var boot []byte
	if *bootPath != "" {
		b, err := os.ReadFile(*bootPath)
		if err != nil {
			log.Fatalf("read bootrom: %v", err)
		}
		boot = b
	}

	m := emu.New(emu.Config{})
	if err := m.LoadCartridge(rom, boot); err != nil {
		log.Fatalf("load cart: %v", err)
	}

	var ser bytes.Buffer
	serialWindow := *serialWindowFlag
	if serialWindow < 256 {
		serialWindow = 256
	}
	serRing := make([]byte, serialWindow)
	serRingIdx, serRingFill := 0, 0
	w := io.Writer(os.Stdout)
	if *until != "" || *auto {
		w = io.MultiWriter(os.Stdout, &ser, writerFunc(func(p []byte) (int, error) {
			for _, ch := range p {
				serRing[serRingIdx] = ch
				serRingIdx = (serRingIdx + 1) % serialWindow
				if serRingFill < serialWindow {
					serRingFill++
				}
			}
			return len(p), nil
		}))
	}
	m.SetSerialWriter(w)

	var insnCount int
	m.SetTraceHook(func(pc uint16, op byte) {
		insnCount++
		if *trace {
			fmt.Printf("PC=%04X OP=%02X\n", pc, op)
		}
	})

	start := time.Now()
	var deadline time.Time
	if *timeout > 0 {
		deadline = start.Add(*timeout)
	}
	failRe := regexp.MustCompile(`(?i)failed\s+(\d+)\s+tests?`)
	stageRe := regexp.MustCompile(`\b(\d{2}:\d{2})\b`)
	lastStage := ""

	dumpFail := func() {
		if *traceOnFail {
			if ill := m.LastIllegal(); ill != nil {
				fmt.Printf("\n--- trapped CPU state ---\n%s\n", ill.Error())
			}
		}
		if serRingFill > 0 {
			fmt.Printf("\n--- recent serial (last %d bytes) ---\n", serRingFill)
			start := (serRingIdx - serRingFill + serialWindow) % serialWindow
			for j := 0; j < serRingFill; j++ {
				idx := (start + j) % serialWindow
				fmt.Printf("%c", serRing[idx])
			}
			fmt.Printf("\n--- end serial ---\n")
		}
	}

	for insnCount < *steps {
		m.TickMasterCycle()
		if *auto {
			s := ser.String()
			if mm := stageRe.FindAllString(s, -1); len(mm) > 0 {
				lastStage = mm[len(mm)-1]
			}
			if strings.Contains(strings.ToLower(s), "passed") {
				fmt.Printf("\nDetected PASS in serial output.\n")
				if lastStage != "" {
					fmt.Printf("Last stage seen: %s\n", lastStage)
				}
				fmt.Printf("\nDone: instructions=%d elapsed=%s\n", insnCount, time.Since(start).Truncate(time.Millisecond))
				os.Exit(0)
			}
			if mm := failRe.FindStringSubmatch(s); mm != nil {
				fmt.Printf("\nDetected %s in serial output.\n", mm[0])
				if lastStage != "" {
					fmt.Printf("Last stage seen: %s\n", lastStage)
				}
				dumpFail()
				fmt.Printf("\nDone: instructions=%d elapsed=%s\n", insnCount, time.Since(start).Truncate(time.Millisecond))
				os.Exit(1)
			}
		} else if *until != "" {
			if strings.Contains(strings.ToLower(ser.String()), strings.ToLower(*until)) {
				fmt.Printf("\nDetected %q in serial output.\n", *until)
				fmt.Printf("\nDone: instructions=%d elapsed=%s\n", insnCount, time.Since(start).Truncate(time.Millisecond))
				return
			}
		}
		if ill := m.LastIllegal(); ill != nil {
			fmt.Printf("\nIllegal opcode trapped: %s\n", ill.Error())
			os.Exit(1)
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			fmt.Printf("\nTimeout after %s.\n", time.Since(start).Truncate(time.Millisecond))
			dumpFail()
			os.Exit(2)
		}
	}
	fmt.Printf("\nDone: instructions=%d elapsed=%s\n", insnCount, time.Since(start).Truncate(time.Millisecond))
}
