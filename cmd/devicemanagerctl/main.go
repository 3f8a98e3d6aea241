// SPDX-License-Identifier: Apache-2.0

// Command devicemanagerctl is a small, process-lifetime-only front-end for
// exercising the device registry by hand: add a device, list the registry,
// attach or detach it, and see the result, all against an in-memory
// manager and a no-op hypervisor. It never touches a real sandbox. Each
// invocation runs exactly one command against a freshly built, empty
// manager, so ids printed by an earlier "add" are not known to a later
// "attach" or "detach", and "list" prints only its header.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/sirupsen/logrus"

	"github.com/sandboxvm/runtime/devicemanager/api"
	"github.com/sandboxvm/runtime/devicemanager/config"
	"github.com/sandboxvm/runtime/devicemanager/manager"
)

func main() {
	logLevel := flag.String("log-level", "warn", "log level: trace/debug/info/warn/error")
	blockDriver := flag.String("block-driver", config.VirtioMmio, "block driver: virtio-mmio or virtio-blk")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <command> [args]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "commands:\n")
		fmt.Fprintf(os.Stderr, "  add <container-path> <dev-type c|u|b|p> <major> <minor>\n")
		fmt.Fprintf(os.Stderr, "  attach <id>\n")
		fmt.Fprintf(os.Stderr, "  detach <id>\n")
		fmt.Fprintf(os.Stderr, "  list\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if lvl, err := logrus.ParseLevel(*logLevel); err == nil {
		logrus.SetLevel(lvl)
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	dm, err := manager.NewDeviceManager(*blockDriver)
	if err != nil {
		fatal(err)
	}
	hv := &api.MockHypervisor{HypervisorType: "noop"}

	switch args[0] {
	case "add":
		runAdd(dm, args[1:])
	case "attach":
		runAttach(dm, hv, args[1:])
	case "detach":
		runDetach(dm, hv, args[1:])
	case "list":
		runList(dm)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func runAdd(dm api.DeviceManager, args []string) {
	if len(args) != 4 {
		fatal(fmt.Errorf("add needs <container-path> <dev-type> <major> <minor>"))
	}

	var major, minor int64
	if _, err := fmt.Sscanf(args[2], "%d", &major); err != nil {
		fatal(fmt.Errorf("bad major %q: %w", args[2], err))
	}
	if _, err := fmt.Sscanf(args[3], "%d", &minor); err != nil {
		fatal(fmt.Errorf("bad minor %q: %w", args[3], err))
	}

	dev, err := dm.NewDevice(config.DeviceInfo{
		ContainerPath: args[0],
		DevType:       args[1],
		Major:         major,
		Minor:         minor,
	})
	if err != nil {
		fatal(err)
	}
	fmt.Println(dev.DeviceID())
}

func runAttach(dm api.DeviceManager, hv api.Hypervisor, args []string) {
	if len(args) != 1 {
		fatal(fmt.Errorf("attach needs <id>"))
	}
	if err := dm.AttachDevice(context.Background(), args[0], hv); err != nil {
		fatal(err)
	}
}

func runDetach(dm api.DeviceManager, hv api.Hypervisor, args []string) {
	if len(args) != 1 {
		fatal(fmt.Errorf("detach needs <id>"))
	}
	if err := dm.DetachDevice(context.Background(), args[0], hv); err != nil {
		fatal(err)
	}
}

func runList(dm api.DeviceManager) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "ID\tTYPE\tHOST PATH\tATTACHED")
	for _, dev := range dm.GetAllDevices() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n",
			dev.DeviceID(), dev.DeviceType(), dev.GetHostPath(), dev.GetAttachCount())
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "devicemanagerctl:", err)
	os.Exit(1)
}
