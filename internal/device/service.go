package device

// ----------------------------
// Static profile
// ----------------------------

// StaticProperty is a Property with a fixed value and name
type StaticProperty struct {
	Bit  int
	Name string
}

func (p *StaticProperty) Value() int        { return p.Bit }
func (p *StaticProperty) KnownName() string { return p.Name }

// Property bit values as defined by the Bluetooth Core specification
const (
	PropBroadcast            = 0x01
	PropRead                 = 0x02
	PropWriteWithoutResponse = 0x04
	PropWrite                = 0x08
	PropNotify               = 0x10
	PropIndicate             = 0x20
	PropSignedWrite          = 0x40
	PropExtended             = 0x80
)

// FlagProperties implements Properties over a bit mask
type FlagProperties int

func (f FlagProperties) get(bit int, name string) Property {
	if int(f)&bit == 0 {
		return nil
	}
	return &StaticProperty{Bit: bit, Name: name}
}

func (f FlagProperties) Broadcast() Property { return f.get(PropBroadcast, "Broadcast") }
func (f FlagProperties) Read() Property      { return f.get(PropRead, "Read") }
func (f FlagProperties) Write() Property     { return f.get(PropWrite, "Write") }
func (f FlagProperties) WriteWithoutResponse() Property {
	return f.get(PropWriteWithoutResponse, "WriteWithoutResponse")
}
func (f FlagProperties) Notify() Property   { return f.get(PropNotify, "Notify") }
func (f FlagProperties) Indicate() Property { return f.get(PropIndicate, "Indicate") }
func (f FlagProperties) AuthenticatedSignedWrites() Property {
	return f.get(PropSignedWrite, "AuthenticatedSignedWrites")
}
func (f FlagProperties) ExtendedProperties() Property { return f.get(PropExtended, "ExtendedProperties") }

// StaticCharacteristic is an in-memory Characteristic
type StaticCharacteristic struct {
	ID    string
	Flags FlagProperties
}

func (c *StaticCharacteristic) UUID() string              { return NormalizeUUID(c.ID) }
func (c *StaticCharacteristic) GetProperties() Properties { return c.Flags }

// StaticService is an in-memory Service, used by fakes and tests
type StaticService struct {
	ID              string
	Characteristics []Characteristic
}

func (s *StaticService) UUID() string { return NormalizeUUID(s.ID) }

func (s *StaticService) GetCharacteristics() []Characteristic {
	return s.Characteristics
}
