package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/devicebulk/internal/batch"
	"github.com/JonMunkholm/devicebulk/internal/defaults"
	"github.com/JonMunkholm/devicebulk/internal/schema"
	"github.com/JonMunkholm/devicebulk/internal/table"
)

func deviceCatalog() *schema.Catalog {
	return schema.NewCatalog([]schema.Relation{
		{ForeignKeyName: "FK_DevicePort_Device", ParentTable: "dbo.DevicePort", ParentColumn: "DeviceID", ReferencedTable: "dbo.Device", ReferencedColumn: "DeviceID"},
		{ForeignKeyName: "FK_DeviceAttribute_Device", ParentTable: "dbo_DeviceAttribute", ParentColumn: "nDeviceID", ReferencedTable: "Device", ReferencedColumn: "DeviceID"},
		{ForeignKeyName: "FK_Missing_Device", ParentTable: "Missing", ParentColumn: "DeviceID", ReferencedTable: "Device", ReferencedColumn: "DeviceID"},
	})
}

func loadSet(t *testing.T, store table.Store, catalog *schema.Catalog) *WorkingSet {
	t.Helper()
	ws, err := LoadWorkingSet(context.Background(), store, catalog, "Device")
	require.NoError(t, err)
	return ws
}

func mustBatch(t *testing.T, headers []string, rows ...[]string) *batch.Batch {
	t.Helper()
	b, err := batch.FromRecords("test.csv", append([][]string{headers}, rows...))
	require.NoError(t, err)
	return b
}

func mustLoad(t *testing.T, store table.Store, name string) *table.Table {
	t.Helper()
	tbl, err := store.Load(context.Background(), name)
	require.NoError(t, err)
	return tbl
}

func TestLoadWorkingSet(t *testing.T) {
	store := table.NewMemoryStore(
		table.New("Device", []string{"DeviceID", "Site"}, [][]string{{"1", "HQ"}, {"2", "HQ"}}),
		table.New("DevicePort", []string{"PortID", "DeviceID"}, nil),
		table.New("Unrelated", []string{"ID"}, nil),
	)

	ws := loadSet(t, store, deviceCatalog())

	assert.Equal(t, "Device", ws.Root)
	assert.Equal(t, []string{"Device", "DevicePort"}, ws.Names(), "only root and loadable direct children")
	assert.Len(t, ws.Warnings, 2, "DeviceAttribute and Missing fail to load")

	site, ok := ws.Detected.Get("Device", "Site")
	assert.True(t, ok)
	assert.Equal(t, "HQ", site)

	_, err := LoadWorkingSet(context.Background(), table.NewMemoryStore(), deviceCatalog(), "Device")
	assert.ErrorIs(t, err, ErrRootTableMissing)
}

func TestInsert_DeviceScenario(t *testing.T) {
	store := table.NewMemoryStore(
		table.New("Device", []string{"DeviceID", "Name"}, [][]string{{"1", "A"}}),
		table.New("DevicePort", []string{"DeviceID", "PortNum"}, nil),
	)
	ws := loadSet(t, store, deviceCatalog())
	eng := NewEngine(store, defaults.Settings{
		Templates: defaults.Templates{"DevicePort": {{"PortNum": "1"}}},
	})

	next, res, err := eng.Insert(context.Background(), ws, mustBatch(t, []string{"Name"}, []string{"B"}))
	require.NoError(t, err)

	assert.Equal(t, 1, res.Supplied)
	assert.Equal(t, 1, res.Applied)
	assert.Equal(t, map[string]int{"DevicePort": 1}, res.ChildRows)
	assert.True(t, res.Complete())

	assert.Equal(t, [][]string{{"1", "A"}, {"2", "B"}}, mustLoad(t, store, "Device").Rows)
	assert.Equal(t, [][]string{{"2", "1"}}, mustLoad(t, store, "DevicePort").Rows)
	assert.Equal(t, []string{"Device", "DevicePort"}, store.Writes(), "root is written before children")

	root, _ := next.Table("Device")
	assert.Equal(t, 2, root.Len())
	_, ok := next.Detected.Get("Device", "Name")
	assert.False(t, ok, "detected defaults are recomputed after the batch")
}

func TestInsert_ChildKeysAreSequential(t *testing.T) {
	store := table.NewMemoryStore(
		table.New("Device", []string{"DeviceID", "Name"}, [][]string{{"1", "A"}}),
		table.New("DevicePort", []string{"PortID", "DeviceID", "PortNum"}, [][]string{
			{"10", "1", "1"},
			{"4", "1", "2"},
		}),
	)
	ws := loadSet(t, store, deviceCatalog())
	eng := NewEngine(store, defaults.Settings{
		Templates: defaults.Templates{"dbo.DevicePort": {{"PortNum": "1"}, {"PortNum": "2"}}},
	})

	b := mustBatch(t, []string{"Name"}, []string{"B"}, []string{"C"}, []string{"D"})
	_, res, err := eng.Insert(context.Background(), ws, b)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Applied)
	assert.Equal(t, 6, res.ChildRows["DevicePort"])

	ports := mustLoad(t, store, "DevicePort")
	require.Equal(t, 8, ports.Len())

	var newKeys []string
	var fks []string
	for _, row := range ports.Rows[2:] {
		newKeys = append(newKeys, row[0])
		fks = append(fks, row[1])
	}
	assert.Equal(t, []string{"11", "12", "13", "14", "15", "16"}, newKeys)
	assert.Equal(t, []string{"2", "2", "3", "3", "4", "4"}, fks)
}

func TestInsert_TemplatesWithForeignKeyFirst(t *testing.T) {
	store := table.NewMemoryStore(
		table.New("Device", []string{"DeviceID", "Name"}, [][]string{{"1", "A"}}),
		table.New("DevicePort", []string{"DeviceID", "PortNum"}, [][]string{{"1", "1"}, {"1", "2"}}),
	)
	ws := loadSet(t, store, deviceCatalog())
	eng := NewEngine(store, defaults.Settings{
		Templates: defaults.Templates{"DevicePort": {{"PortNum": "1"}, {"PortNum": "2"}}},
	})

	_, res, err := eng.Insert(context.Background(), ws, mustBatch(t, []string{"Name"}, []string{"B"}))
	require.NoError(t, err)

	assert.Equal(t, 1, res.Applied)
	assert.Equal(t, map[string]int{"DevicePort": 2}, res.ChildRows)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, [][]string{{"1", "1"}, {"1", "2"}, {"2", "1"}, {"2", "2"}}, mustLoad(t, store, "DevicePort").Rows)
}

func TestInsert_DefaultsAndExplicitValues(t *testing.T) {
	store := table.NewMemoryStore(
		table.New("Device", []string{"DeviceID", "Name", "Site", "Model"}, [][]string{
			{"1", "A", "HQ", "X"},
			{"2", "B", "HQ", "Y"},
		}),
	)
	ws := loadSet(t, store, deviceCatalog())
	eng := NewEngine(store, defaults.Settings{
		Defaults: defaults.Set{"Device": {"Model": "Z", "DeviceID": "99"}},
	})

	b := mustBatch(t, []string{"Name", "Device.Site"},
		[]string{"C", ""},
		[]string{"D", "Branch"},
	)
	_, res, err := eng.Insert(context.Background(), ws, b)
	require.NoError(t, err)
	require.Equal(t, 2, res.Applied)

	rows := mustLoad(t, store, "Device").Rows
	assert.Equal(t, []string{"3", "C", "HQ", "Z"}, rows[2], "user default, then detected default; key never seeded")
	assert.Equal(t, []string{"4", "D", "Branch", "Z"}, rows[3])
}

func TestInsert_DuplicateExplicitKeySkipped(t *testing.T) {
	store := table.NewMemoryStore(
		table.New("Device", []string{"DeviceID", "Name"}, [][]string{{"1", "A"}}),
	)
	ws := loadSet(t, store, deviceCatalog())

	b := mustBatch(t, []string{"DeviceID", "Name"},
		[]string{"1", "dup of existing"},
		[]string{"5", "E"},
		[]string{"5", "dup within batch"},
		[]string{"", "F"},
	)
	_, res, err := NewEngine(store, defaults.Empty()).Insert(context.Background(), ws, b)
	require.NoError(t, err)

	assert.Equal(t, 4, res.Supplied)
	assert.Equal(t, 2, res.Applied)
	assert.Equal(t, 2, res.Skipped)
	assert.Len(t, res.Warnings, 2)
	assert.Equal(t, [][]string{{"1", "A"}, {"5", "E"}, {"6", "F"}}, mustLoad(t, store, "Device").Rows)
}

func TestInsert_DirectChildColumns(t *testing.T) {
	newStore := func() *table.MemoryStore {
		return table.NewMemoryStore(
			table.New("Device", []string{"DeviceID", "Name"}, [][]string{{"1", "A"}}),
			table.New("DevicePort", []string{"PortID", "DeviceID", "PortNum", "Speed"}, [][]string{{"1", "1", "1", "1G"}}),
			table.New("DeviceAttribute", []string{"AttrID", "nDeviceID", "Key", "Value"}, nil),
		)
	}

	t.Run("merged onto first template row", func(t *testing.T) {
		store := newStore()
		ws := loadSet(t, store, deviceCatalog())
		eng := NewEngine(store, defaults.Settings{
			Templates: defaults.Templates{"DevicePort": {{"PortNum": "1"}, {"PortNum": "2"}}},
		})

		b := mustBatch(t, []string{"Name", "DevicePort.Speed"}, []string{"B", "10G"})
		_, _, err := eng.Insert(context.Background(), ws, b)
		require.NoError(t, err)

		ports := mustLoad(t, store, "DevicePort").Rows
		require.Len(t, ports, 3)
		assert.Equal(t, []string{"2", "2", "1", "10G"}, ports[1])
		assert.Equal(t, []string{"3", "2", "2", ""}, ports[2])
	})

	t.Run("seeded child row without template", func(t *testing.T) {
		store := newStore()
		ws := loadSet(t, store, deviceCatalog())

		b := mustBatch(t, []string{"Name", "dbo.DeviceAttribute.Key", "DeviceAttribute.Value"},
			[]string{"B", "color", "red"},
			[]string{"C", "", ""},
		)
		_, res, err := NewEngine(store, defaults.Empty()).Insert(context.Background(), ws, b)
		require.NoError(t, err)

		attrs := mustLoad(t, store, "DeviceAttribute").Rows
		assert.Equal(t, [][]string{{"", "2", "color", "red"}}, attrs, "empty child table has no numeric keys")
		assert.Equal(t, 1, res.ChildRows["DeviceAttribute"])
		assert.NotContains(t, store.Writes(), "DevicePort", "untouched child tables are not rewritten")
	})

	t.Run("unknown table column is ignored with warning", func(t *testing.T) {
		store := newStore()
		ws := loadSet(t, store, deviceCatalog())

		b := mustBatch(t, []string{"Name", "Rack.Slot", "Bogus"}, []string{"B", "4", "x"})
		_, res, err := NewEngine(store, defaults.Empty()).Insert(context.Background(), ws, b)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Applied)
		assert.Len(t, res.Warnings, 2)
	})
}

func TestInsert_FKFromReferencedColumn(t *testing.T) {
	catalog := schema.NewCatalog([]schema.Relation{
		{ForeignKeyName: "FK_Port_Serial", ParentTable: "DevicePort", ParentColumn: "Serial", ReferencedTable: "Device", ReferencedColumn: "Serial"},
	})
	store := table.NewMemoryStore(
		table.New("Device", []string{"DeviceID", "Serial"}, [][]string{{"1", "S1"}}),
		table.New("DevicePort", []string{"PortID", "Serial"}, [][]string{{"1", "S1"}}),
	)
	ws := loadSet(t, store, catalog)
	eng := NewEngine(store, defaults.Settings{Templates: defaults.Templates{"DevicePort": {{}}}})

	_, _, err := eng.Insert(context.Background(), ws, mustBatch(t, []string{"Serial"}, []string{"S2"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "S2"}, mustLoad(t, store, "DevicePort").Rows[1])

	_, _, err = NewEngine(store, defaults.Empty()).Delete(context.Background(), loadSet(t, store, catalog),
		mustBatch(t, []string{"DeviceID"}, []string{"1"}))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"2", "S2"}}, mustLoad(t, store, "DevicePort").Rows)
}

func TestInsert_PartialWriteFailure(t *testing.T) {
	store := table.NewMemoryStore(
		table.New("Device", []string{"DeviceID", "Name"}, [][]string{{"1", "A"}}),
		table.New("DevicePort", []string{"PortID", "DeviceID"}, nil),
		table.New("DeviceAttribute", []string{"AttrID", "nDeviceID"}, nil),
	)
	ws := loadSet(t, store, deviceCatalog())
	boom := errors.New("disk full")
	store.FailWrites("DeviceAttribute", boom)

	eng := NewEngine(store, defaults.Settings{Templates: defaults.Templates{
		"DevicePort":      {{}},
		"DeviceAttribute": {{}},
	}})
	next, res, err := eng.Insert(context.Background(), ws, mustBatch(t, []string{"Name"}, []string{"B"}))

	var wErr *table.WriteError
	require.True(t, errors.As(err, &wErr))
	assert.ErrorIs(t, res.Err(), boom)
	assert.False(t, res.Complete())

	require.Len(t, res.Writes, 3)
	assert.Equal(t, TableWrite{Table: "Device", Rows: 2, Status: WriteDone}, res.Writes[0])
	assert.Equal(t, "DeviceAttribute", res.Writes[1].Table)
	assert.Equal(t, WriteFailed, res.Writes[1].Status)
	assert.Equal(t, WriteSkipped, res.Writes[2].Status, "plan stops at the first failure")

	assert.Equal(t, 2, mustLoad(t, store, "Device").Len(), "written tables stay written")
	assert.Equal(t, 0, mustLoad(t, store, "DevicePort").Len())

	attrs, _ := next.Table("DeviceAttribute")
	assert.Equal(t, 0, attrs.Len())
	root, _ := next.Table("Device")
	assert.Equal(t, 2, root.Len())
}

func TestUpdate_Idempotent(t *testing.T) {
	store := table.NewMemoryStore(
		table.New("Device", []string{"DeviceID", "Name", "Site"}, [][]string{{"1", "A", "HQ"}, {"2", "B", "HQ"}}),
		table.New("DevicePort", []string{"PortID", "DeviceID", "Speed"}, [][]string{{"1", "1", "1G"}, {"2", "2", "1G"}}),
	)
	eng := NewEngine(store, defaults.Empty())
	b := mustBatch(t, []string{"Device.DeviceID", "Name", "DevicePort.PortID", "DevicePort.Speed"},
		[]string{"1", "A2", "1", "10G"},
		[]string{"2", "B", "", "40G"},
	)

	_, first, err := eng.Update(context.Background(), loadSet(t, store, deviceCatalog()), b)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Applied)
	assert.Equal(t, 1, first.Unchanged, "row 2 only has a child cell without child key")
	assert.Equal(t, map[string]int{"DevicePort": 1}, first.ChildRows)
	assert.Equal(t, [][]string{{"1", "A2", "HQ"}, {"2", "B", "HQ"}}, mustLoad(t, store, "Device").Rows)
	assert.Equal(t, [][]string{{"1", "1", "10G"}, {"2", "2", "1G"}}, mustLoad(t, store, "DevicePort").Rows)

	writes := len(store.Writes())
	_, second, err := eng.Update(context.Background(), loadSet(t, store, deviceCatalog()), b)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Applied)
	assert.Equal(t, 2, second.Unchanged)
	assert.Empty(t, second.Writes)
	assert.Len(t, store.Writes(), writes, "no table is rewritten when nothing changed")
}

func TestBatchCellsWrittenRaw(t *testing.T) {
	store := table.NewMemoryStore(
		table.New("Device", []string{"DeviceID", "Name"}, [][]string{{"1", "A"}}),
		table.New("DevicePort", []string{"PortID", "DeviceID", "Speed"}, [][]string{{"1", "1", "1G"}}),
	)
	eng := NewEngine(store, defaults.Empty())
	ctx := context.Background()

	_, res, err := eng.Update(ctx, loadSet(t, store, deviceCatalog()),
		mustBatch(t, []string{"DeviceID", "Name", "DevicePort.PortID", "DevicePort.Speed"},
			[]string{" 1 ", " Core ", " 1 ", "10G "}))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Applied)
	assert.Empty(t, res.Warnings, "keys match after trimming")
	assert.Equal(t, [][]string{{"1", " Core "}}, mustLoad(t, store, "Device").Rows)
	assert.Equal(t, [][]string{{"1", "1", "10G "}}, mustLoad(t, store, "DevicePort").Rows)

	_, res, err = eng.Insert(ctx, loadSet(t, store, deviceCatalog()),
		mustBatch(t, []string{"DeviceID", "Name"}, []string{" 5 ", "Edge "}))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Applied)
	assert.Equal(t, []string{"5", "Edge "}, mustLoad(t, store, "Device").Rows[1], "key cells are stored trimmed")
}

func TestUpdate_BareChildKey(t *testing.T) {
	store := table.NewMemoryStore(
		table.New("Device", []string{"DeviceID", "Name"}, [][]string{{"1", "A"}}),
		table.New("DevicePort", []string{"PortID", "DeviceID", "Speed"}, [][]string{{"7", "1", "1G"}}),
	)

	b := mustBatch(t, []string{"DeviceID", "PortID", "DevicePort.Speed"}, []string{"1", "7", "10G"})
	_, res, err := NewEngine(store, defaults.Empty()).Update(context.Background(), loadSet(t, store, deviceCatalog()), b)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Applied)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, []string{"DevicePort"}, store.Writes())
	assert.Equal(t, "10G", mustLoad(t, store, "DevicePort").Rows[0][2])
}

func TestUpdate_SkipsUnresolvableRows(t *testing.T) {
	store := table.NewMemoryStore(
		table.New("Device", []string{"DeviceID", "Name"}, [][]string{{"1", "A"}}),
	)

	b := mustBatch(t, []string{"DeviceID", "Name"},
		[]string{"", "blank key"},
		[]string{"42", "unknown key"},
		[]string{"1", "A1"},
	)
	_, res, err := NewEngine(store, defaults.Empty()).Update(context.Background(), loadSet(t, store, deviceCatalog()), b)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Supplied)
	assert.Equal(t, 1, res.Applied)
	assert.Equal(t, 2, res.Skipped)
}

func TestMissingKeyColumn(t *testing.T) {
	for _, op := range []Operation{OpUpdate, OpDelete} {
		t.Run(string(op), func(t *testing.T) {
			store := table.NewMemoryStore(
				table.New("Device", []string{"DeviceID", "Name"}, [][]string{{"1", "A"}}),
			)

			_, res, err := NewEngine(store, defaults.Empty()).Run(context.Background(), op,
				loadSet(t, store, deviceCatalog()), mustBatch(t, []string{"Name"}, []string{"A"}))

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, op, vErr.Operation)
			assert.Equal(t, "Device", vErr.Table)
			assert.Nil(t, res)
			assert.Empty(t, store.Writes())
		})
	}
}

func TestDelete_Cascade(t *testing.T) {
	store := table.NewMemoryStore(
		table.New("Device", []string{"DeviceID", "Name"}, [][]string{{"5", "E"}, {"6", "F"}, {"7", "G"}}),
		table.New("DevicePort", []string{"PortID", "DeviceID"}, [][]string{{"1", "7"}, {"2", "6"}, {"3", "7"}, {"4", "77"}}),
		table.New("DeviceAttribute", []string{"AttrID", "nDeviceID"}, [][]string{{"1", "5"}, {"2", "7"}}),
	)

	b := mustBatch(t, []string{"Device.DeviceID", "Name"}, []string{"7", ""}, []string{"", "F"})
	next, res, err := NewEngine(store, defaults.Empty()).Delete(context.Background(), loadSet(t, store, deviceCatalog()), b)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Applied)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, map[string]int{"DevicePort": 2, "DeviceAttribute": 1}, res.ChildRows)

	assert.Equal(t, [][]string{{"5", "E"}, {"6", "F"}}, mustLoad(t, store, "Device").Rows)
	assert.Equal(t, [][]string{{"2", "6"}, {"4", "77"}}, mustLoad(t, store, "DevicePort").Rows)
	assert.Equal(t, [][]string{{"1", "5"}}, mustLoad(t, store, "DeviceAttribute").Rows)
	assert.Equal(t, []string{"DeviceAttribute", "DevicePort", "Device"}, store.Writes(), "children before root")

	root, _ := next.Table("Device")
	assert.Equal(t, 2, root.Len())
}

func TestDelete_NoMatchStillWritesChildren(t *testing.T) {
	store := table.NewMemoryStore(
		table.New("Device", []string{"DeviceID"}, [][]string{{"1"}}),
		table.New("DevicePort", []string{"PortID", "DeviceID"}, [][]string{{"1", "1"}}),
	)

	b := mustBatch(t, []string{"DeviceID"}, []string{"9"})
	_, res, err := NewEngine(store, defaults.Empty()).Delete(context.Background(), loadSet(t, store, deviceCatalog()), b)
	require.NoError(t, err)

	assert.Equal(t, 0, res.Applied)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, []string{"DevicePort", "Device"}, store.Writes())
	assert.Equal(t, 1, mustLoad(t, store, "DevicePort").Len())
}

func TestDelete_ChildFailureKeepsRoot(t *testing.T) {
	store := table.NewMemoryStore(
		table.New("Device", []string{"DeviceID"}, [][]string{{"1"}, {"2"}}),
		table.New("DevicePort", []string{"PortID", "DeviceID"}, [][]string{{"1", "1"}}),
	)
	store.FailWrites("DevicePort", errors.New("locked"))

	_, res, err := NewEngine(store, defaults.Empty()).Delete(context.Background(),
		loadSet(t, store, deviceCatalog()), mustBatch(t, []string{"DeviceID"}, []string{"1"}))
	require.Error(t, err)

	assert.Equal(t, WriteFailed, res.Writes[0].Status)
	assert.Equal(t, WriteSkipped, res.Writes[1].Status)
	assert.Equal(t, 2, mustLoad(t, store, "Device").Len(), "root rows survive so no orphans are left")
}

func TestDelete_NoKeys(t *testing.T) {
	store := table.NewMemoryStore(table.New("Device", []string{"DeviceID"}, [][]string{{"1"}}))

	_, res, err := NewEngine(store, defaults.Empty()).Delete(context.Background(),
		loadSet(t, store, deviceCatalog()), mustBatch(t, []string{"DeviceID", "Name"}, []string{"", "x"}))
	require.NoError(t, err)
	assert.Empty(t, res.Writes)
	assert.Empty(t, store.Writes())
}

func TestTieBreak(t *testing.T) {
	relations := []schema.Relation{
		{ForeignKeyName: "FK_A", ParentTable: "DevicePort", ParentColumn: "DeviceID", ReferencedTable: "Device", ReferencedColumn: "DeviceID"},
		{ForeignKeyName: "FK_B", ParentTable: "DevicePort", ParentColumn: "OwnerID", ReferencedTable: "Device", ReferencedColumn: "DeviceID"},
	}
	newStore := func() *table.MemoryStore {
		return table.NewMemoryStore(
			table.New("Device", []string{"DeviceID"}, [][]string{{"1"}, {"2"}}),
			table.New("DevicePort", []string{"PortID", "DeviceID", "OwnerID"}, [][]string{{"1", "1", "2"}, {"2", "2", "1"}}),
		)
	}
	del := mustBatch(t, []string{"DeviceID"}, []string{"1"})

	t.Run("first relation wins", func(t *testing.T) {
		store := newStore()
		_, _, err := NewEngine(store, defaults.Empty()).Delete(context.Background(), loadSet(t, store, schema.NewCatalog(relations)), del)
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"2", "2", "1"}}, mustLoad(t, store, "DevicePort").Rows)
	})

	t.Run("canonical designation", func(t *testing.T) {
		store := newStore()
		catalog := schema.NewCatalog(relations)
		catalog.SetTieBreak(schema.TieBreakStrict, map[string]string{"DevicePort": "FK_B"})

		_, _, err := NewEngine(store, defaults.Empty()).Delete(context.Background(), loadSet(t, store, catalog), del)
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"1", "1", "2"}}, mustLoad(t, store, "DevicePort").Rows)
	})

	t.Run("strict refuses", func(t *testing.T) {
		store := newStore()
		catalog := schema.NewCatalog(relations)
		catalog.SetTieBreak(schema.TieBreakStrict, nil)

		_, res, err := NewEngine(store, defaults.Empty()).Delete(context.Background(), loadSet(t, store, catalog), del)
		assert.ErrorIs(t, err, schema.ErrAmbiguousRelation)
		assert.Nil(t, res)
		assert.Empty(t, store.Writes())
	})
}

func TestParseOperation(t *testing.T) {
	op, err := ParseOperation("delete")
	require.NoError(t, err)
	assert.Equal(t, OpDelete, op)

	_, err = ParseOperation("upsert")
	assert.Error(t, err)
}
