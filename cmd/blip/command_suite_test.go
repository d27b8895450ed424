package main

import (
	"bytes"
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/srg/blip/internal/device"
	"github.com/srg/blip/internal/testutils"
	"github.com/stretchr/testify/mock"
)

// CommandTestSuite runs the real command tree against an in-memory printer.
// All cmd/blip test suites should embed this instead of FakePrinterSuite.
type CommandTestSuite struct {
	testutils.FakePrinterSuite

	Scanner *testutils.MockScanner

	origTransport func(*logrus.Logger) device.Transport
	origScanner   func(*logrus.Logger) device.Scanner
}

func (s *CommandTestSuite) SetupTest() {
	s.FakePrinterSuite.SetupTest()

	s.Scanner = &testutils.MockScanner{}
	s.Scanner.On("Scan", mock.Anything, mock.Anything).Return(context.DeadlineExceeded)

	s.origTransport, s.origScanner = transportFactory, scannerFactory
	transport, scanner := s.Transport, s.Scanner
	transportFactory = func(*logrus.Logger) device.Transport { return transport }
	scannerFactory = func(*logrus.Logger) device.Scanner { return scanner }
}

func (s *CommandTestSuite) TearDownTest() {
	transportFactory, scannerFactory = s.origTransport, s.origScanner
	s.FakePrinterSuite.TearDownTest()
}

// ExecuteCommand runs a fresh root command with args, returns stdout, stderr and error.
func (s *CommandTestSuite) ExecuteCommand(args ...string) (string, string, error) {
	root := newRootCmd()
	stdout, stderr := new(syncBuffer), new(syncBuffer)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// syncBuffer is written by bus handlers on the printer's notification
// goroutine while the test reads it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
