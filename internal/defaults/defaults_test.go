package defaults

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JonMunkholm/devicebulk/internal/table"
)

func TestDetect(t *testing.T) {
	device := table.New("Device", []string{"DeviceID", "Site", "Model", "Note"}, [][]string{
		{"1", "5", "X", ""},
		{"2", "5 ", "Y", " "},
		{"3", " 5", "X", ""},
	})
	empty := table.New("DevicePort", []string{"PortID"}, nil)

	got := Detect(device, empty, nil)

	site, ok := got.Get("Device", "Site")
	assert.True(t, ok)
	assert.Equal(t, "5", site)

	_, ok = got.Get("Device", "Model")
	assert.False(t, ok, "non-uniform column must have no detected default")

	_, ok = got.Get("Device", "DeviceID")
	assert.False(t, ok)

	note, ok := got.Get("device", "Note")
	assert.True(t, ok)
	assert.Equal(t, "", note)

	_, ok = got.Get("DevicePort", "PortID")
	assert.False(t, ok, "tables without rows contribute nothing")
}

func TestDetect_SingleColumnValues(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   string
		wantOK bool
	}{
		{"uniform", []string{"5", "5", "5"}, "5", true},
		{"mixed", []string{"5", "6"}, "", false},
		{"single row", []string{"x"}, "x", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := make([][]string, len(tt.values))
			for i, v := range tt.values {
				rows[i] = []string{v}
			}
			got, ok := Detect(table.New("T", []string{"C"}, rows)).Get("T", "C")
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("detected = %q, %v, want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestResolver_Order(t *testing.T) {
	r := Resolver{
		User:     Set{"dbo.Device": {"Site": "user", "Blank": ""}},
		Detected: Set{"Device": {"Site": "detected", "Model": "M1", "Blank": "det"}},
	}

	assert.Equal(t, "user", r.Resolve("Device", "Site"))
	assert.Equal(t, "M1", r.Resolve("Device", "Model"))
	assert.Equal(t, "", r.Resolve("Device", "Other"))
	assert.Equal(t, "", r.Resolve("Device", "Blank"), "an explicit empty user default still wins")
	assert.Equal(t, "", r.Resolve("Unknown", "Site"))
}

func TestResolver_SeedSkipsKeys(t *testing.T) {
	r := Resolver{Detected: Set{"Device": {"DeviceID": "1", "Site": "HQ"}}}
	tbl := table.New("Device", []string{"DeviceID", "Site", "Name"}, nil)

	row := r.Seed(tbl, "deviceid")
	assert.Equal(t, []string{"", "HQ", ""}, row)
}

func TestSet_Put(t *testing.T) {
	s := make(Set)
	s.Put("dbo_Device", "Site", "A")
	s.Put("device", "Model", "B")

	assert.Equal(t, []string{"Device"}, s.Tables())
	assert.Equal(t, map[string]string{"Site": "A", "Model": "B"}, s["Device"])
}

func TestTemplates(t *testing.T) {
	tmpl := Templates{
		"dbo.DevicePort": {{"PortNum": "1"}, {"PortNum": "2"}},
		"Empty":          {},
		"Alarm":          {{"Level": "3"}},
	}

	assert.Equal(t, []string{"Alarm", "DevicePort"}, tmpl.Tables())
	assert.Len(t, tmpl.For("deviceport"), 2)
	assert.Nil(t, tmpl.For("Missing"))

	c := tmpl.For("DevicePort")[0].Clone()
	c["PortNum"] = "9"
	assert.Equal(t, "1", tmpl.For("DevicePort")[0]["PortNum"])
}

func TestVisibility(t *testing.T) {
	v := Visibility{
		"Device": {TableVisibilityKey: false, "Secret": false, "Name": true},
	}

	tv := v.For("dbo.device")
	assert.False(t, tv.TableVisible())
	assert.False(t, tv.ColumnVisible("Secret"))
	assert.True(t, tv.ColumnVisible("Unlisted"))
	assert.True(t, v.For("Other").TableVisible())

	assert.Equal(t, []string{"DeviceID", "Name"}, v.VisibleColumns("Device", []string{"DeviceID", "Secret", "Name"}))
}
