package factory

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"token-factory/internal/domain"
	"token-factory/internal/token"
)

const (
	testAdmin    = "admin-A"
	testTreasury = "treasury-T"
	testCreator  = "creator-C"
	testNow      = int64(1704067200000)
)

func newTestFactory() (*Factory, *State) {
	f := New(token.NewDeployer("test-factory"))
	st := NewState(testAdmin, testTreasury, domain.FeeSchedule{
		BaseFee:     70_000_000,
		MetadataFee: 30_000_000,
	})
	return f, st
}

func createInput() domain.CreateTokenInput {
	return domain.CreateTokenInput{
		Creator:       testCreator,
		Name:          "Test",
		Symbol:        "TST",
		Decimals:      7,
		InitialSupply: 1_000_000,
		FeePayment:    70_000_000,
	}
}

func TestCreateToken_Success(t *testing.T) {
	f, st := newTestFactory()

	addr, event, err := f.CreateToken(st, testNow, createInput())
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}
	if addr == "" {
		t.Fatal("CreateToken returned empty address")
	}

	if st.RegistrySize() != 1 {
		t.Errorf("Registry size mismatch: got %d, want 1", st.RegistrySize())
	}
	if st.TreasuryBalance() != 70_000_000 {
		t.Errorf("Treasury balance mismatch: got %d, want 70000000", st.TreasuryBalance())
	}
	if st.Version() != 1 {
		t.Errorf("Version mismatch: got %d, want 1", st.Version())
	}

	record, exists := st.Record(addr)
	if !exists {
		t.Fatal("Record not found after create")
	}
	if record.Creator != testCreator {
		t.Errorf("Creator mismatch: got %s", record.Creator)
	}
	if record.MintAuthority != testAdmin {
		t.Errorf("MintAuthority mismatch: got %s, want %s", record.MintAuthority, testAdmin)
	}
	if record.Metadata.Present() {
		t.Error("Fresh record has metadata present")
	}
	if record.CreatedAt != testNow {
		t.Errorf("CreatedAt mismatch: got %d", record.CreatedAt)
	}
	if record.FeePaid != 70_000_000 {
		t.Errorf("FeePaid mismatch: got %d", record.FeePaid)
	}

	inst, exists := st.Instance(addr)
	if !exists {
		t.Fatal("Instance not found after create")
	}
	if inst.TotalSupply() != 1_000_000 {
		t.Errorf("TotalSupply mismatch: got %d, want 1000000", inst.TotalSupply())
	}
	if inst.BalanceOf(testCreator) != 1_000_000 {
		t.Errorf("Creator balance mismatch: got %d, want 1000000", inst.BalanceOf(testCreator))
	}

	if event.EventType != domain.EventTokenCreated {
		t.Errorf("Event type mismatch: got %s", event.EventType)
	}
	if event.TokenAddress != addr || event.Amount != 1_000_000 || event.FeePaid != 70_000_000 {
		t.Errorf("Event fields mismatch: %+v", event)
	}
}

func TestCreateToken_InsufficientFeeIsAtomic(t *testing.T) {
	f, st := newTestFactory()

	in := createInput()
	in.FeePayment = 70_000_000 - 1

	_, _, err := f.CreateToken(st, testNow, in)
	if !errors.Is(err, ErrInsufficientFee) {
		t.Fatalf("Expected ErrInsufficientFee, got %v", err)
	}

	// No partial effect: registry and treasury untouched
	if st.RegistrySize() != 0 {
		t.Errorf("Registry mutated on failed create: size %d", st.RegistrySize())
	}
	if st.TreasuryBalance() != 0 {
		t.Errorf("Treasury mutated on failed create: %d", st.TreasuryBalance())
	}
	if st.Version() != 0 {
		t.Errorf("Version advanced on failed create: %d", st.Version())
	}
}

func TestCreateToken_ValidationBounds(t *testing.T) {
	f, _ := newTestFactory()

	tests := []struct {
		name   string
		mutate func(*domain.CreateTokenInput)
	}{
		{"empty name", func(in *domain.CreateTokenInput) { in.Name = "" }},
		{"name too long", func(in *domain.CreateTokenInput) { in.Name = strings.Repeat("a", 33) }},
		{"empty symbol", func(in *domain.CreateTokenInput) { in.Symbol = "" }},
		{"symbol too long", func(in *domain.CreateTokenInput) { in.Symbol = strings.Repeat("T", 13) }},
		{"decimals too large", func(in *domain.CreateTokenInput) { in.Decimals = 19 }},
		{"zero supply", func(in *domain.CreateTokenInput) { in.InitialSupply = 0 }},
		{"empty creator", func(in *domain.CreateTokenInput) { in.Creator = "" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st := NewState(testAdmin, testTreasury, domain.FeeSchedule{BaseFee: 70_000_000, MetadataFee: 30_000_000})
			in := createInput()
			tc.mutate(&in)

			_, _, err := f.CreateToken(st, testNow, in)
			if !errors.Is(err, ErrInvalidParameters) {
				t.Errorf("Expected ErrInvalidParameters, got %v", err)
			}
			if st.RegistrySize() != 0 || st.TreasuryBalance() != 0 {
				t.Error("Failed create left partial effect")
			}
		})
	}
}

func TestCreateToken_BoundaryLengthsAccepted(t *testing.T) {
	f, st := newTestFactory()

	in := createInput()
	in.Name = strings.Repeat("n", 32)
	in.Symbol = strings.Repeat("s", 12)
	in.Decimals = 18

	if _, _, err := f.CreateToken(st, testNow, in); err != nil {
		t.Errorf("Boundary-length create failed: %v", err)
	}
}

func TestCreateToken_MaxSupply(t *testing.T) {
	f, st := newTestFactory()

	in := createInput()
	in.InitialSupply = math.MaxUint64

	addr, _, err := f.CreateToken(st, testNow, in)
	if err != nil {
		t.Fatalf("Max-supply create failed: %v", err)
	}

	inst, _ := st.Instance(addr)
	if inst.TotalSupply() != math.MaxUint64 {
		t.Errorf("TotalSupply mismatch: got %d", inst.TotalSupply())
	}
}

func TestCreateToken_DistinctAddresses(t *testing.T) {
	f, st := newTestFactory()

	// Identical submissions land at different versions, so each gets a
	// fresh address.
	addr1, _, err := f.CreateToken(st, testNow, createInput())
	if err != nil {
		t.Fatalf("First create failed: %v", err)
	}
	addr2, _, err := f.CreateToken(st, testNow, createInput())
	if err != nil {
		t.Fatalf("Second create failed: %v", err)
	}

	if addr1 == addr2 {
		t.Errorf("Two creates produced the same address: %s", addr1)
	}
	if st.RegistrySize() != 2 {
		t.Errorf("Registry size mismatch: got %d, want 2", st.RegistrySize())
	}
}

func TestFeeConsistency_CreateToken(t *testing.T) {
	// For base fees in [5,10], payment == fee succeeds and payment == fee-1
	// fails with the fee error.
	for baseFee := uint64(5); baseFee <= 10; baseFee++ {
		f := New(token.NewDeployer("test-factory"))
		st := NewState(testAdmin, testTreasury, domain.FeeSchedule{BaseFee: baseFee, MetadataFee: 2})

		in := createInput()
		in.FeePayment = baseFee
		if _, _, err := f.CreateToken(st, testNow, in); err != nil {
			t.Errorf("base_fee=%d: exact payment rejected: %v", baseFee, err)
		}

		in.FeePayment = baseFee - 1
		_, _, err := f.CreateToken(st, testNow, in)
		if !errors.Is(err, ErrInsufficientFee) {
			t.Errorf("base_fee=%d: underpayment accepted, err=%v", baseFee, err)
		}
	}
}

func TestFeeConsistency_SetMetadata(t *testing.T) {
	for metadataFee := uint64(2); metadataFee <= 5; metadataFee++ {
		f := New(token.NewDeployer("test-factory"))
		st := NewState(testAdmin, testTreasury, domain.FeeSchedule{BaseFee: 5, MetadataFee: metadataFee})

		in := createInput()
		in.FeePayment = 5
		addr, _, err := f.CreateToken(st, testNow, in)
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		_, err = f.SetMetadata(st, testNow, domain.SetMetadataInput{
			TokenAddress: addr,
			Caller:       testAdmin,
			MetadataURI:  "ipfs://xyz",
			FeePayment:   metadataFee - 1,
		})
		if !errors.Is(err, ErrInsufficientFee) {
			t.Errorf("metadata_fee=%d: underpayment accepted, err=%v", metadataFee, err)
		}

		_, err = f.SetMetadata(st, testNow, domain.SetMetadataInput{
			TokenAddress: addr,
			Caller:       testAdmin,
			MetadataURI:  "ipfs://xyz",
			FeePayment:   metadataFee,
		})
		if err != nil {
			t.Errorf("metadata_fee=%d: exact payment rejected: %v", metadataFee, err)
		}
	}
}

func TestSetMetadata_WriteOnce(t *testing.T) {
	f, st := newTestFactory()

	addr, _, err := f.CreateToken(st, testNow, createInput())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	set := domain.SetMetadataInput{
		TokenAddress: addr,
		Caller:       testAdmin,
		MetadataURI:  "ipfs://xyz",
		FeePayment:   30_000_000,
	}
	if _, err := f.SetMetadata(st, testNow, set); err != nil {
		t.Fatalf("First SetMetadata failed: %v", err)
	}

	record, _ := st.Record(addr)
	uri, present := record.Metadata.URI()
	if !present || uri != "ipfs://xyz" {
		t.Fatalf("Metadata not stored: present=%v uri=%q", present, uri)
	}

	// Identical URI still conflicts: the field is write-once unconditionally.
	_, err = f.SetMetadata(st, testNow, set)
	if !errors.Is(err, ErrMetadataAlreadySet) {
		t.Errorf("Expected ErrMetadataAlreadySet for identical URI, got %v", err)
	}

	set.MetadataURI = "ipfs://abc"
	_, err = f.SetMetadata(st, testNow, set)
	if !errors.Is(err, ErrMetadataAlreadySet) {
		t.Errorf("Expected ErrMetadataAlreadySet for new URI, got %v", err)
	}

	// Stored URI unchanged
	record, _ = st.Record(addr)
	if uri, _ := record.Metadata.URI(); uri != "ipfs://xyz" {
		t.Errorf("Stored URI changed after rejected set: %q", uri)
	}
}

func TestSetMetadata_Errors(t *testing.T) {
	f, st := newTestFactory()

	addr, _, err := f.CreateToken(st, testNow, createInput())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err = f.SetMetadata(st, testNow, domain.SetMetadataInput{
		TokenAddress: "unknown-address",
		Caller:       testAdmin,
		MetadataURI:  "ipfs://xyz",
		FeePayment:   30_000_000,
	})
	if !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("Expected ErrTokenNotFound, got %v", err)
	}

	_, err = f.SetMetadata(st, testNow, domain.SetMetadataInput{
		TokenAddress: addr,
		Caller:       testCreator, // creator is not the token admin
		MetadataURI:  "ipfs://xyz",
		FeePayment:   30_000_000,
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized, got %v", err)
	}

	// Failed attempts left the metadata absent and the treasury with only
	// the creation fee.
	record, _ := st.Record(addr)
	if record.Metadata.Present() {
		t.Error("Metadata present after failed attempts")
	}
	if st.TreasuryBalance() != 70_000_000 {
		t.Errorf("Treasury changed by failed attempts: %d", st.TreasuryBalance())
	}
}

func TestMintTokens_SupplyConservation(t *testing.T) {
	f, st := newTestFactory()

	addr, _, err := f.CreateToken(st, testNow, createInput())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	inst, _ := st.Instance(addr)

	for _, amount := range []uint64{1, 500, 1_000_000} {
		before := inst.TotalSupply()
		_, err := f.MintTokens(st, testNow, domain.MintTokensInput{
			TokenAddress: addr,
			Caller:       testAdmin,
			Recipient:    "holder-R",
			Amount:       amount,
			FeePayment:   70_000_000,
		})
		if err != nil {
			t.Fatalf("MintTokens(%d) failed: %v", amount, err)
		}
		if got := inst.TotalSupply(); got != before+amount {
			t.Errorf("Supply mismatch after mint %d: got %d, want %d", amount, got, before+amount)
		}
	}

	// The registry record still carries the initial supply only; live
	// supply is read from the instance.
	record, _ := st.Record(addr)
	if record.InitialSupply != 1_000_000 {
		t.Errorf("Record initial supply restated: %d", record.InitialSupply)
	}
}

func TestMintTokens_AdminOnly(t *testing.T) {
	f, st := newTestFactory()

	addr, _, err := f.CreateToken(st, testNow, createInput())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Any identity other than the token's admin always fails, for all
	// valid amounts.
	for _, caller := range []string{testCreator, testTreasury, "stranger-X"} {
		for _, amount := range []uint64{1, 1000} {
			_, err := f.MintTokens(st, testNow, domain.MintTokensInput{
				TokenAddress: addr,
				Caller:       caller,
				Recipient:    caller,
				Amount:       amount,
				FeePayment:   70_000_000,
			})
			if !errors.Is(err, ErrUnauthorized) {
				t.Errorf("caller=%s amount=%d: expected ErrUnauthorized, got %v", caller, amount, err)
			}
		}
	}

	inst, _ := st.Instance(addr)
	if inst.TotalSupply() != 1_000_000 {
		t.Errorf("Unauthorized mints changed supply: %d", inst.TotalSupply())
	}
}

func TestMintTokens_InvalidParameters(t *testing.T) {
	f, st := newTestFactory()

	addr, _, err := f.CreateToken(st, testNow, createInput())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err = f.MintTokens(st, testNow, domain.MintTokensInput{
		TokenAddress: addr,
		Caller:       testAdmin,
		Recipient:    "holder-R",
		Amount:       0,
		FeePayment:   70_000_000,
	})
	if !errors.Is(err, ErrInvalidParameters) {
		t.Errorf("Zero amount: expected ErrInvalidParameters, got %v", err)
	}

	_, err = f.MintTokens(st, testNow, domain.MintTokensInput{
		TokenAddress: addr,
		Caller:       testAdmin,
		Recipient:    "holder-R",
		Amount:       math.MaxUint64, // 1_000_000 already minted
		FeePayment:   70_000_000,
	})
	if !errors.Is(err, ErrInvalidParameters) {
		t.Errorf("Overflow: expected ErrInvalidParameters, got %v", err)
	}

	_, err = f.MintTokens(st, testNow, domain.MintTokensInput{
		TokenAddress: "unknown-address",
		Caller:       testAdmin,
		Recipient:    "holder-R",
		Amount:       1,
		FeePayment:   70_000_000,
	})
	if !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("Unknown token: expected ErrTokenNotFound, got %v", err)
	}
}

func TestUpdateFees_PartialUpdate(t *testing.T) {
	f, st := newTestFactory()

	newBase := uint64(100_000_000)
	_, err := f.UpdateFees(st, testNow, domain.UpdateFeesInput{
		Caller:     testAdmin,
		NewBaseFee: &newBase,
	})
	if err != nil {
		t.Fatalf("UpdateFees failed: %v", err)
	}

	fees := st.Fees()
	if fees.BaseFee != 100_000_000 {
		t.Errorf("BaseFee mismatch: got %d", fees.BaseFee)
	}
	if fees.MetadataFee != 30_000_000 {
		t.Errorf("Absent field changed MetadataFee: got %d", fees.MetadataFee)
	}

	newMetadata := uint64(1)
	if _, err := f.UpdateFees(st, testNow, domain.UpdateFeesInput{
		Caller:         testAdmin,
		NewMetadataFee: &newMetadata,
	}); err != nil {
		t.Fatalf("UpdateFees failed: %v", err)
	}
	if got := st.Fees().BaseFee; got != 100_000_000 {
		t.Errorf("Absent field changed BaseFee: got %d", got)
	}
	if got := st.Fees().MetadataFee; got != 1 {
		t.Errorf("MetadataFee mismatch: got %d", got)
	}
}

func TestUpdateFees_Unauthorized(t *testing.T) {
	f, st := newTestFactory()

	newBase := uint64(1)
	_, err := f.UpdateFees(st, testNow, domain.UpdateFeesInput{
		Caller:     testCreator,
		NewBaseFee: &newBase,
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Expected ErrUnauthorized, got %v", err)
	}

	if got := st.Fees().BaseFee; got != 70_000_000 {
		t.Errorf("Unauthorized update changed BaseFee: %d", got)
	}
}

func TestUpdateFees_NoRetroactiveEffect(t *testing.T) {
	f, st := newTestFactory()

	addr, _, err := f.CreateToken(st, testNow, createInput())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	newBase := uint64(999_999_999)
	newMetadata := uint64(888_888_888)
	if _, err := f.UpdateFees(st, testNow, domain.UpdateFeesInput{
		Caller:         testAdmin,
		NewBaseFee:     &newBase,
		NewMetadataFee: &newMetadata,
	}); err != nil {
		t.Fatalf("UpdateFees failed: %v", err)
	}

	// The committed record keeps its historical fee and the token stays
	// fully usable.
	record, exists := st.Record(addr)
	if !exists {
		t.Fatal("Record vanished after fee update")
	}
	if record.FeePaid != 70_000_000 {
		t.Errorf("Historical fee restated: got %d, want 70000000", record.FeePaid)
	}

	if _, err := f.MintTokens(st, testNow, domain.MintTokensInput{
		TokenAddress: addr,
		Caller:       testAdmin,
		Recipient:    "holder-R",
		Amount:       10,
		FeePayment:   newBase,
	}); err != nil {
		t.Errorf("Token unusable after fee update: %v", err)
	}
}

func TestGetTokenInfo(t *testing.T) {
	f, st := newTestFactory()

	addr, _, err := f.CreateToken(st, testNow, createInput())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	info, err := f.GetTokenInfo(st, addr)
	if err != nil {
		t.Fatalf("GetTokenInfo failed: %v", err)
	}
	if info.TotalSupply != 1_000_000 {
		t.Errorf("TotalSupply mismatch: got %d", info.TotalSupply)
	}

	// Supply view must be live, not cached: a mint is reflected on the
	// next read.
	if _, err := f.MintTokens(st, testNow, domain.MintTokensInput{
		TokenAddress: addr,
		Caller:       testAdmin,
		Recipient:    "holder-R",
		Amount:       234,
		FeePayment:   70_000_000,
	}); err != nil {
		t.Fatalf("MintTokens failed: %v", err)
	}

	info, err = f.GetTokenInfo(st, addr)
	if err != nil {
		t.Fatalf("GetTokenInfo failed: %v", err)
	}
	if info.TotalSupply != 1_000_234 {
		t.Errorf("Live supply mismatch: got %d, want 1000234", info.TotalSupply)
	}

	_, err = f.GetTokenInfo(st, "unknown-address")
	if !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("Expected ErrTokenNotFound, got %v", err)
	}
}

// TestScenario_Issuance runs the end-to-end scenario: create with exact
// base fee, set metadata once, observe the second set conflict.
func TestScenario_Issuance(t *testing.T) {
	f, st := newTestFactory()

	addr, _, err := f.CreateToken(st, testNow, domain.CreateTokenInput{
		Creator:       testCreator,
		Name:          "Test",
		Symbol:        "TST",
		Decimals:      7,
		InitialSupply: 1_000_000,
		FeePayment:    70_000_000,
	})
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}

	if st.RegistrySize() != 1 {
		t.Fatalf("Registry size mismatch: got %d, want 1", st.RegistrySize())
	}
	record, _ := st.Record(addr)
	if record.Metadata.Present() {
		t.Fatal("Metadata present right after create")
	}
	inst, _ := st.Instance(addr)
	if inst.BalanceOf(testCreator) != 1_000_000 {
		t.Fatalf("Creator balance mismatch: got %d", inst.BalanceOf(testCreator))
	}

	if _, err := f.SetMetadata(st, testNow, domain.SetMetadataInput{
		TokenAddress: addr,
		Caller:       testAdmin,
		MetadataURI:  "ipfs://xyz",
		FeePayment:   30_000_000,
	}); err != nil {
		t.Fatalf("SetMetadata failed: %v", err)
	}

	_, err = f.SetMetadata(st, testNow, domain.SetMetadataInput{
		TokenAddress: addr,
		Caller:       testAdmin,
		MetadataURI:  "ipfs://abc",
		FeePayment:   30_000_000,
	})
	if !errors.Is(err, ErrMetadataAlreadySet) {
		t.Fatalf("Expected ErrMetadataAlreadySet, got %v", err)
	}

	if st.TreasuryBalance() != 100_000_000 {
		t.Errorf("Treasury mismatch: got %d, want 100000000", st.TreasuryBalance())
	}
}

func TestState_RecordsSortedAndCopied(t *testing.T) {
	f, st := newTestFactory()

	for i := 0; i < 5; i++ {
		in := createInput()
		in.Name = fmt.Sprintf("Token%d", i)
		if _, _, err := f.CreateToken(st, testNow+int64(i), in); err != nil {
			t.Fatalf("Create %d failed: %v", i, err)
		}
	}

	records := st.Records()
	if len(records) != 5 {
		t.Fatalf("Records length mismatch: got %d", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i-1].CreatedAt > records[i].CreatedAt {
			t.Errorf("Records not sorted by CreatedAt at %d", i)
		}
	}

	// Mutating a returned record must not touch factory state
	records[0].Name = "mutated"
	fresh, _ := st.Record(records[0].TokenAddress)
	if fresh.Name == "mutated" {
		t.Error("Returned record aliases internal state")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		kind ErrorKind
	}{
		{nil, KindNone},
		{ErrInsufficientFee, KindFee},
		{ErrUnauthorized, KindAuthorization},
		{ErrInvalidParameters, KindValidation},
		{ErrTokenNotFound, KindNotFound},
		{ErrMetadataAlreadySet, KindStateConflict},
		{errors.New("boom"), KindInternal},
		{fmt.Errorf("wrapped: %w", ErrInsufficientFee), KindFee},
	}

	for _, tc := range tests {
		if got := KindOf(tc.err); got != tc.kind {
			t.Errorf("KindOf(%v) = %s, want %s", tc.err, got, tc.kind)
		}
	}
}
