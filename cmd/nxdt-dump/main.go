// Command nxdt-dump wires internal/cert and internal/usbdevice together
// end to end. Per the DeviceServer boundary (internal/usbdevice,
// internal/usbdevice/fake), there is no real platform USB gadget backend
// this module can drive from Go, so this binary runs against the fake
// in-memory DeviceServer and a directory-backed save container: it is an
// integration harness for exercising CertStore + UsbLink + DetectionLoop
// together, not a deployable device-side image.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"nxdt/internal/cert"
	"nxdt/internal/container"
	"nxdt/internal/usbdevice"
	"nxdt/internal/usbdevice/fake"
	"nxdt/internal/usbframe"
)

func main() {
	certDir := flag.String("cert-dir", ".", "directory laid out like the save container's /certificate tree")
	issuer := flag.String("issuer", "", "Root-... issuer string to resolve into a chain on startup")
	flag.Parse()

	save, err := container.OpenFixture(*certDir)
	if err != nil {
		log.Fatalf("nxdt-dump: open cert directory: %v", err)
	}
	store := cert.NewStore(save)
	defer store.Close()

	if *issuer != "" {
		raw, err := store.GenerateRawChain(*issuer)
		if err != nil {
			log.Fatalf("nxdt-dump: generate chain for %q: %v", *issuer, err)
		}
		log.Printf("nxdt-dump: resolved %q to a %d-byte raw chain", *issuer, len(raw))
	}

	server := fake.New(func(written []byte) ([]byte, error) {
		if len(written) < usbframe.HeaderSize {
			return nil, nil
		}
		return usbframe.NewStatusFrame(usbframe.StatusSuccess).Encode(), nil
	})

	link := usbdevice.New(server)
	if err := link.Initialize(usbdevice.FirmwareModern, usbdevice.AppVersion{Major: 1}, "nxdt", "dump"); err != nil {
		log.Fatalf("nxdt-dump: initialize: %v", err)
	}
	defer link.Exit()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	log.Println("nxdt-dump: running; Ctrl-C to exit")
	<-sigCh
}
