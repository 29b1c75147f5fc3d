package dashd

import (
	"context"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jd3nn1s/dashd/esplink"
	"github.com/jd3nn1s/dashd/racebox"
)

// Mock devices for bench testing without a car. Values oscillate through
// realistic ranges and travel the real encode/decode paths, so frames are
// built, checksummed, and parsed exactly as live traffic would be.

const (
	mockSerialInterval  = 50 * time.Millisecond
	mockRaceBoxInterval = 40 * time.Millisecond
)

type mockSerialLink struct {
	decoder *esplink.Decoder
}

func (m *mockSerialLink) Close() error {
	return nil
}

func (m *mockSerialLink) Stats() esplink.Stats {
	return m.decoder.Stats()
}

func (m *mockSerialLink) Start(ctx context.Context, cb esplink.Callbacks) error {
	ticker := time.NewTicker(mockSerialInterval)
	defer ticker.Stop()

	t := 0.0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		entries := []esplink.Entry{
			esplink.U16Entry(byte(esplink.SensorRPM), uint16(2000+math.Sin(t*1.5)*1500)),
			esplink.U16Entry(byte(esplink.SensorBoostPressure), uint16(500+math.Sin(t*0.3)*700+800)),
			esplink.U16Entry(byte(esplink.SensorOilPressure), uint16(2000+math.Cos(t*0.2)*200)),
			esplink.U16Entry(byte(esplink.SensorFuelLevel), uint16(3000+math.Sin(t*0.1)*500)),
			esplink.U16Entry(byte(esplink.SensorSpeed), uint16(80+math.Sin(t*0.2)*40)),
			esplink.U8Entry(byte(esplink.SensorStatusFlags), 0),
			esplink.I16Entry(byte(esplink.SensorSteeringAngle), int16(math.Sin(t*0.5)*300)),
			esplink.U16Entry(byte(esplink.SensorBrakePressure), uint16(1000+math.Cos(t*0.7)*500)),
			esplink.U8Entry(byte(esplink.SensorThrottlePos), byte(50+math.Sin(t*0.8)*40)),
			esplink.U8Entry(byte(esplink.SensorGearPos), byte(3+math.Sin(t*0.2)*2)),
		}

		raw, err := esplink.EncodeReadingsFrame(entries)
		if err != nil {
			return err
		}
		for _, frame := range m.decoder.Push(raw) {
			if cb.Frame != nil {
				cb.Frame(frame)
			}
		}
		t += 0.05
	}
}

func runMockSerial(ctx context.Context, agg *Aggregator, portName string, baudRate int) {
	err := retry(ctx, &serialRetryable{
		agg:      agg,
		portName: portName,
		baudRate: baudRate,
		connect: func(string, int) (SerialLink, error) {
			log.Info("using mock sensor node")
			return &mockSerialLink{decoder: esplink.NewDecoder()}, nil
		},
	})
	if err != nil {
		log.Errorf("mock esplink done: %v", err)
	}
}

type mockRaceBox struct{}

func (m *mockRaceBox) Close() error {
	return nil
}

func (m *mockRaceBox) Start(ctx context.Context, payload func([]byte)) error {
	ticker := time.NewTicker(mockRaceBoxInterval)
	defer ticker.Stop()

	t := 0.0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		rec := &racebox.Record{
			TimestampMillis: uint32(t * 1000),
			Year:            2024,
			Month:           6,
			Day:             1,
			Hour:            12,
			ValidDate:       true,
			ValidTime:       true,
			FixStatus:       3,
			FixOK:           true,
			NumSatellites:   12,
			Latitude:        48.123456 + math.Sin(t*0.05)*0.001,
			Longitude:       11.654321 + math.Cos(t*0.05)*0.001,
			WGSAltitude:     500.0,
			MSLAltitude:     495.0,
			SpeedKPH:        80.0 + math.Sin(t*0.2)*40.0,
			HeadingDegrees:  math.Mod(t*10.0, 360.0),
			PDOP:            1.2,
			GForceX:         math.Sin(t) * 1.2,
			GForceY:         math.Cos(t*0.7) * 1.0,
			GForceZ:         1.0 + math.Sin(t*0.3)*0.2,
			RotationRateX:   math.Sin(t*0.5) * 10.0,
			RotationRateY:   math.Cos(t*0.3) * 10.0,
			RotationRateZ:   math.Sin(t*0.2) * 10.0,
		}
		payload(racebox.Encode(rec))
		t += 0.04
	}
}

func mockRaceBoxSource() (NotificationSource, error) {
	log.Info("using mock racebox source")
	return &mockRaceBox{}, nil
}
