package testutils

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
)

// FakePrinterSuite provides a reusable test suite with an in-memory printer.
//
// Basic usage (default printer "B1-H0000001"):
//
//	type ClientSuite struct {
//	    testutils.FakePrinterSuite
//	}
//
//	func TestClientSuite(t *testing.T) {
//	    suite.Run(t, new(ClientSuite))
//	}
//
// Custom printer usage:
//
//	func (s *ClientSuite) SetupTest() {
//	    s.WithPrinter("D110-A1").WithInfo(packet.InfoSerialNumber, []byte("SN1")...)
//	    s.FakePrinterSuite.SetupTest() // Call parent last to apply configuration
//	}
type FakePrinterSuite struct {
	suite.Suite

	Helper *TestHelper
	Logger *logrus.Logger

	// TestTimeout bounds waits in tests
	TestTimeout time.Duration

	Printer   *FakePrinter
	Transport *FakeTransport
}

// SetupSuite is called once before all tests in the suite
func (s *FakePrinterSuite) SetupSuite() {
	s.Helper = NewTestHelper(s.T())
	s.Logger = s.Helper.Logger
	s.TestTimeout = 2 * time.Second
}

// SetupTest builds the transport around the configured printer
func (s *FakePrinterSuite) SetupTest() {
	if s.Printer == nil {
		s.Printer = NewFakePrinter("B1-H0000001")
	}
	s.Transport = NewFakeTransport(s.Printer)
	s.Logger.Debug("Test setup completed - ready for execution")
}

// TearDownTest resets the printer so each test starts from a fresh one
func (s *FakePrinterSuite) TearDownTest() {
	if s.Printer != nil {
		s.Printer.Drop()
	}
	s.Printer = nil
	s.Transport = nil
}

// WithPrinter replaces the default printer; call before SetupTest
func (s *FakePrinterSuite) WithPrinter(name string) *FakePrinter {
	s.Printer = NewFakePrinter(name)
	return s.Printer
}
