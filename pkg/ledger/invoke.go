package ledger

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/burn-hook/pkg/ledger/account"
	"github.com/code-payments/burn-hook/pkg/solana"
	"github.com/code-payments/burn-hook/pkg/solana/runtime"
)

// privilegeFunc decides the signer and writable privileges granted to an
// account referenced by an instruction.
type privilegeFunc func(meta solana.AccountMeta) (isSigner, isWritable bool, err error)

type snapshot struct {
	owner    ed25519.PublicKey
	lamports uint64
	data     []byte
}

// invocation is a single program execution frame. It implements
// runtime.Invoker for the program it runs.
type invocation struct {
	ledger *Ledger
	ws     *workingSet

	program ed25519.PublicKey
	stack   []ed25519.PublicKey

	// unique holds one info per distinct key, shared by every position the
	// key appears at.
	unique    []*runtime.AccountInfo
	snapshots map[string]snapshot
}

func (l *Ledger) execute(ctx context.Context, ws *workingSet, stack []ed25519.PublicKey, instruction solana.Instruction, privileges privilegeFunc) error {
	if len(stack) >= runtime.MaxInvokeDepth {
		return errors.Wrapf(solana.InstructionErrorCallDepth, "depth %d", len(stack)+1)
	}
	// Direct self recursion is the only permitted form of reentrancy
	if len(stack) > 0 && !bytes.Equal(stack[len(stack)-1], instruction.Program) && containsKey(stack, instruction.Program) {
		return errors.Wrapf(solana.InstructionErrorReentrancyNotAllowed, "program %s", base58.Encode(instruction.Program))
	}

	processor, ok := l.programs[base58.Encode(instruction.Program)]
	if !ok {
		return errors.Wrapf(solana.InstructionErrorUnsupportedProgramID, "program %s", base58.Encode(instruction.Program))
	}

	inv := &invocation{
		ledger:    l,
		ws:        ws,
		program:   instruction.Program,
		stack:     append(append([]ed25519.PublicKey{}, stack...), instruction.Program),
		snapshots: make(map[string]snapshot),
	}

	byKey := make(map[string]*runtime.AccountInfo)
	accounts := make([]*runtime.AccountInfo, len(instruction.Accounts))
	for i, meta := range instruction.Accounts {
		isSigner, isWritable, err := privileges(meta)
		if err != nil {
			return err
		}

		key := base58.Encode(meta.PublicKey)
		info, ok := byKey[key]
		if !ok {
			record, err := ws.get(ctx, meta.PublicKey)
			if err != nil {
				return errors.Wrap(err, "error loading account")
			}

			info = &runtime.AccountInfo{
				Key:        append(ed25519.PublicKey{}, meta.PublicKey...),
				Owner:      append(ed25519.PublicKey{}, record.Owner...),
				Lamports:   record.Lamports,
				Data:       append([]byte{}, record.Data...),
				Executable: record.Executable,
			}
			byKey[key] = info
			inv.unique = append(inv.unique, info)
		}

		info.IsSigner = info.IsSigner || isSigner
		info.IsWritable = info.IsWritable || isWritable
		accounts[i] = info
	}
	inv.snapshot()

	if err := processor.Process(ctx, inv, instruction.Program, accounts, instruction.Data); err != nil {
		return err
	}
	return inv.sync(ctx)
}

// Invoke implements runtime.Invoker.
func (inv *invocation) Invoke(ctx context.Context, instruction solana.Instruction, signers ...runtime.SignerSeeds) error {
	var derivedSigners []ed25519.PublicKey
	for _, seeds := range signers {
		address, err := solana.CreateProgramAddress(inv.program, seeds...)
		if err != nil {
			return errors.Wrap(solana.InstructionErrorInvalidSeeds, err.Error())
		}
		derivedSigners = append(derivedSigners, address)
	}

	privileges := func(meta solana.AccountMeta) (bool, bool, error) {
		caller, ok := runtime.Find(inv.unique, meta.PublicKey)
		if !ok {
			return false, false, errors.Wrapf(solana.InstructionErrorMissingAccount, "account %s", base58.Encode(meta.PublicKey))
		}

		if meta.IsWritable && !caller.IsWritable {
			return false, false, errors.Wrapf(solana.InstructionErrorPrivilegeEscalation, "%s is not writable", base58.Encode(meta.PublicKey))
		}

		if meta.IsSigner && !caller.IsSigner && !containsKey(derivedSigners, meta.PublicKey) {
			return false, false, errors.Wrapf(solana.InstructionErrorPrivilegeEscalation, "%s is not a signer", base58.Encode(meta.PublicKey))
		}

		return meta.IsSigner, meta.IsWritable, nil
	}

	if err := inv.sync(ctx); err != nil {
		return err
	}

	inv.ledger.log.WithField("program", base58.Encode(instruction.Program)).Trace("cross program invocation")

	if err := inv.ledger.execute(ctx, inv.ws, inv.stack, instruction, privileges); err != nil {
		// A failed invocation fails the transaction even if the caller
		// ignores the error
		inv.ws.abort(err)
		return err
	}
	return inv.refresh(ctx)
}

func (inv *invocation) snapshot() {
	for _, info := range inv.unique {
		inv.snapshots[base58.Encode(info.Key)] = snapshot{
			owner:    append(ed25519.PublicKey{}, info.Owner...),
			lamports: info.Lamports,
			data:     append([]byte{}, info.Data...),
		}
	}
}

// sync validates the changes the program made to its accounts since the last
// snapshot and writes them to the working set.
func (inv *invocation) sync(ctx context.Context) error {
	var before, after uint64
	for _, info := range inv.unique {
		s := inv.snapshots[base58.Encode(info.Key)]
		before += s.lamports
		after += info.Lamports

		if err := inv.verify(info, s); err != nil {
			return errors.Wrapf(err, "account %s", base58.Encode(info.Key))
		}
	}
	if before != after {
		return errors.Wrapf(solana.InstructionErrorUnbalancedInstruction, "lamports before %d, after %d", before, after)
	}

	for _, info := range inv.unique {
		s := inv.snapshots[base58.Encode(info.Key)]
		if s.lamports == info.Lamports && bytes.Equal(s.owner, info.Owner) && bytes.Equal(s.data, info.Data) {
			continue
		}

		record, err := inv.ws.get(ctx, info.Key)
		if err != nil {
			return err
		}

		updated := &account.Record{
			Address:    record.Address,
			Owner:      append(ed25519.PublicKey{}, info.Owner...),
			Lamports:   info.Lamports,
			Data:       append([]byte{}, info.Data...),
			Executable: record.Executable,
		}
		inv.ws.put(updated)
	}

	inv.snapshot()
	return nil
}

func (inv *invocation) verify(info *runtime.AccountInfo, s snapshot) error {
	changedOwner := !bytes.Equal(s.owner, info.Owner)
	changedData := !bytes.Equal(s.data, info.Data)
	changedLamports := s.lamports != info.Lamports

	if !info.IsWritable {
		switch {
		case changedOwner:
			return solana.InstructionErrorModifiedProgramID
		case changedData:
			return solana.InstructionErrorReadonlyDataModified
		case changedLamports:
			return solana.InstructionErrorReadonlyLamportChange
		}
		return nil
	}

	ownedByProgram := bytes.Equal(s.owner, inv.program)

	if changedOwner && (!ownedByProgram || info.Executable) {
		return solana.InstructionErrorModifiedProgramID
	}
	if changedData && (!ownedByProgram || info.Executable) {
		return solana.InstructionErrorExternalAccountDataModified
	}
	if info.Lamports < s.lamports && !ownedByProgram {
		return solana.InstructionErrorExternalAccountLamportSpend
	}
	return nil
}

// refresh reloads the program's view of its accounts after a nested
// invocation modified them.
func (inv *invocation) refresh(ctx context.Context) error {
	for _, info := range inv.unique {
		record, err := inv.ws.get(ctx, info.Key)
		if err != nil {
			return err
		}

		info.Owner = append(ed25519.PublicKey{}, record.Owner...)
		info.Lamports = record.Lamports
		info.Data = append([]byte{}, record.Data...)
	}

	inv.snapshot()
	return nil
}

func containsKey(keys []ed25519.PublicKey, key ed25519.PublicKey) bool {
	for _, k := range keys {
		if bytes.Equal(k, key) {
			return true
		}
	}
	return false
}
