// Command deadlockdemo is a one-shot scenario runner that exercises
// pkg/deadlock end-to-end: it drives a few concurrency patterns against a
// real Detector and prints whatever it finds. It is a driver external to
// the detector's own responsibility, the same way a test harness sits next
// to a library under test.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"deadlockwatch/pkg/config"
	"deadlockwatch/pkg/deadlock"
	"deadlockwatch/pkg/guard"
	"deadlockwatch/pkg/logging"
)

var (
	scenario     string
	configPath   string
	intervalFlag int
)

var rootCmd = &cobra.Command{
	Use:   "deadlockdemo",
	Short: "Run deadlock-detector scenarios against pkg/deadlock",
	Long: `deadlockdemo drives a handful of concurrency scenarios against a real
Detector and reports what it observes: an AB/BA two-thread deadlock, a
three-thread ring, a benign same-order acquisition pattern, and a delayed
deadlock caught by the background worker.`,
	RunE: runDemo,
}

func init() {
	rootCmd.Flags().StringVarP(&scenario, "scenario", "s", "abba", "scenario to run: abba, ring, safe, delayed")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a TOML config file (defaults to the embedded default)")
	rootCmd.Flags().IntVarP(&intervalFlag, "interval", "i", 0, "override the detection interval in seconds")
}

func main() {
	logging.InitDefault()
	defer logging.Close()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runDemo(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	interval := cfg.Interval()
	if intervalFlag > 0 {
		interval = time.Duration(intervalFlag) * time.Second
	}

	det := deadlock.New()
	if err := det.Start(interval); err != nil {
		return err
	}
	defer det.Stop()

	switch scenario {
	case "abba":
		runABBA(det)
	case "ring":
		runRing(det)
	case "safe":
		runSafe(det)
	case "delayed":
		runDelayed(det)
	default:
		return fmt.Errorf("unknown scenario %q", scenario)
	}

	waitForDetection(det, interval)
	det.PrintStatus(os.Stdout)
	if _, detected := det.DeadlockDetectedAt(); detected {
		det.PrintDeadlockInfo(os.Stdout)
	}
	return nil
}

func runABBA(det *deadlock.Detector) {
	l1 := guard.NewMutex(det)
	l2 := guard.NewMutex(det)

	go func() {
		l1.Lock()
		time.Sleep(20 * time.Millisecond)
		l2.Lock()
		l2.Unlock()
		l1.Unlock()
	}()
	go func() {
		l2.Lock()
		time.Sleep(20 * time.Millisecond)
		l1.Lock()
		l1.Unlock()
		l2.Unlock()
	}()
}

func runRing(det *deadlock.Detector) {
	l1 := guard.NewMutex(det)
	l2 := guard.NewMutex(det)
	l3 := guard.NewMutex(det)

	hold := func(first, second *guard.Mutex) {
		first.Lock()
		time.Sleep(20 * time.Millisecond)
		second.Lock()
		second.Unlock()
		first.Unlock()
	}

	go hold(l1, l2)
	go hold(l2, l3)
	go hold(l3, l1)
}

func runSafe(det *deadlock.Detector) {
	l1 := guard.NewMutex(det)
	l2 := guard.NewMutex(det)

	worker := func() {
		for i := 0; i < 3; i++ {
			l1.Lock()
			l2.Lock()
			l2.Unlock()
			l1.Unlock()
		}
	}

	go worker()
	go worker()
}

func runDelayed(det *deadlock.Detector) {
	go func() {
		time.Sleep(2 * time.Second)
		runABBA(det)
	}()
}

func waitForDetection(det *deadlock.Detector, interval time.Duration) {
	deadline := time.Now().Add(interval*3 + 4*time.Second)
	for time.Now().Before(deadline) {
		if _, detected := det.DeadlockDetectedAt(); detected {
			return
		}
		time.Sleep(interval / 4)
	}
}
