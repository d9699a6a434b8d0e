package excel

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"campaignintel/domain/constituency"
	"campaignintel/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var testHeader = []interface{}{
	"ID", "Name", "Region", "Total Voters", "Classification", "Our Party",
	"Year", "Winning Party", "Runner Up Party", "Winner Vote Share", "Runner Up Vote Share",
	"Anti Incumbency", "Policy Impact", "Named Incumbent",
	"caste_general", "caste_obc", "caste_sc", "caste_st",
}

func writeWorkbook(t *testing.T, rows ...[]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", DefaultSheet))

	all := append([][]interface{}{testHeader}, rows...)
	for i, row := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(DefaultSheet, cell, &r))
	}
	path := filepath.Join(t.TempDir(), "constituencies.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestRecordsFromWorkbook(t *testing.T) {
	path := writeWorkbook(t,
		[]interface{}{"Lake-View", "Lake View", "coastal", 210000, "Urban", "our party",
			2019, "rival", "our party", 47.5, 36, 64, "high", "yes", 30, 40, 20, 10},
		[]interface{}{"lake-view", "", "", "", "", "",
			2024, "rival", "our party", 45, 38, "", "", "", "", "", "", ""},
		[]interface{}{"dry-plains", "Dry Plains", "interior", 150000, "rural", "",
			"", "", "", "", "", "", "", "", "", "", "", ""},
	)

	data, err := NewDataReader(path, nil).ReadData()
	require.NoError(t, err)
	assert.Contains(t, data.Headers, "total_voters")

	records, err := RecordsFromSheet(data)
	require.NoError(t, err)
	require.Len(t, records, 2)

	dry := records[0]
	assert.Equal(t, core.ConstituencyID("dry-plains"), dry.ID)
	assert.Empty(t, dry.Elections)
	assert.Nil(t, dry.Signals)
	assert.True(t, dry.Demographics.IsEmpty())

	lake := records[1]
	assert.Equal(t, core.ConstituencyID("lake-view"), lake.ID)
	assert.Equal(t, "Lake View", lake.Name)
	assert.Equal(t, constituency.Urban, lake.Classification)
	require.NotNil(t, lake.TotalVoters)
	assert.Equal(t, 210000, *lake.TotalVoters)
	require.Len(t, lake.Elections, 2)
	assert.Equal(t, 2024, lake.Latest().Year)
	assert.InDelta(t, 11.5, lake.Elections[0].MarginPercent, 1e-9)
	require.NotNil(t, lake.Signals)
	assert.InDelta(t, 64, *lake.Signals.AntiIncumbency, 1e-9)
	assert.Equal(t, constituency.PolicyImpactHigh, lake.Signals.PolicyImpact)
	require.NotNil(t, lake.NamedIncumbent)
	assert.True(t, *lake.NamedIncumbent)
	assert.InDelta(t, 100, lake.Demographics.Caste.Total(), 1e-9)
	assert.InDelta(t, 20, lake.Demographics.Caste.Percent(constituency.CasteSC), 1e-9)
}

func TestRecordsFromSheet_BadNumber(t *testing.T) {
	data := &SheetData{
		Headers: []string{ColID, ColTotalVoters},
		Rows:    []RawRowData{{ColID: "x", ColTotalVoters: "many"}},
	}
	_, err := RecordsFromSheet(data)
	require.Error(t, err)
	assert.True(t, core.IsMalformedError(err))
}

func TestRecordsFromSheet_MissingID(t *testing.T) {
	data := &SheetData{
		Headers: []string{ColID, ColName},
		Rows:    []RawRowData{{ColName: "nameless"}},
	}
	_, err := RecordsFromSheet(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestReadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,name,region\nhill-one,Hill One,hills\n,,\n"), 0o600))

	data, err := NewDataReader(path, nil).ReadData()
	require.NoError(t, err)
	require.Len(t, data.Rows, 1)
	assert.Equal(t, "Hill One", data.Rows[0][ColName])
}

func TestReadData_MissingFile(t *testing.T) {
	_, err := NewDataReader(filepath.Join(t.TempDir(), "none.xlsx"), nil).ReadData()
	require.Error(t, err)
}

type memoryStore struct {
	mu      sync.Mutex
	records map[core.ConstituencyID]*constituency.Record
}

func (m *memoryStore) GetRecord(_ context.Context, id core.ConstituencyID) (*constituency.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.records[id]; ok {
		return r, nil
	}
	return nil, core.NewUnknownConstituencyError(id)
}

func (m *memoryStore) ListByRegion(context.Context, string) ([]*constituency.Record, error) {
	return nil, nil
}

func (m *memoryStore) ListIDs(context.Context) ([]core.ConstituencyID, error) { return nil, nil }

func (m *memoryStore) UpsertRecord(_ context.Context, rec *constituency.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = rec
	return nil
}

func TestImporter_ImportFile(t *testing.T) {
	path := writeWorkbook(t,
		[]interface{}{"north", "North", "hills", 120000, "rural", "", 2024, "rival", "our party", 44, 39, 55, "low", "no", "", "", "", ""},
		[]interface{}{"south", "South", "hills", 90000, "rural"},
	)
	store := &memoryStore{records: map[core.ConstituencyID]*constituency.Record{}}

	ids, err := NewImporter(store, nil).ImportFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []core.ConstituencyID{"north", "south"}, ids)

	got, err := store.GetRecord(context.Background(), "south")
	require.NoError(t, err)
	assert.Equal(t, "South", got.Name)
}
