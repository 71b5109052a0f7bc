package operation

import (
	"github.com/dgraph-io/badger/v2"

	model "github.com/onflow/multiphase/model/election"
)

func UpsertCurrentRound(round uint64) func(*badger.Txn) error {
	return upsert(makePrefix(codeCurrentRound), round)
}

func RetrieveCurrentRound(round *uint64) func(*badger.Txn) error {
	return retrieve(makePrefix(codeCurrentRound), round)
}

func InsertSnapshot(snapshot *model.Snapshot) func(*badger.Txn) error {
	return insert(makePrefix(codeSnapshot, snapshot.Round), snapshot)
}

func RetrieveSnapshot(round uint64, snapshot *model.Snapshot) func(*badger.Txn) error {
	return retrieve(makePrefix(codeSnapshot, round), snapshot)
}

func UpsertQueuedSolution(round uint64, solution *model.Solution) func(*badger.Txn) error {
	return upsert(makePrefix(codeQueued, round), solution)
}

func RetrieveQueuedSolution(round uint64, solution *model.Solution) func(*badger.Txn) error {
	return retrieve(makePrefix(codeQueued, round), solution)
}

func RemoveQueuedSolution(round uint64) func(*badger.Txn) error {
	return remove(makePrefix(codeQueued, round))
}

func UpsertPendingSubmissions(round uint64, pending []*model.PendingSubmission) func(*badger.Txn) error {
	return upsert(makePrefix(codePending, round), pending)
}

func RetrievePendingSubmissions(round uint64, pending *[]*model.PendingSubmission) func(*badger.Txn) error {
	return retrieve(makePrefix(codePending, round), pending)
}

func RemovePendingSubmissions(round uint64) func(*badger.Txn) error {
	return remove(makePrefix(codePending, round))
}

func UpsertPhase(round uint64, phase model.Phase) func(*badger.Txn) error {
	return upsert(makePrefix(codePhase, round), phase)
}

func RetrievePhase(round uint64, phase *model.Phase) func(*badger.Txn) error {
	return retrieve(makePrefix(codePhase, round), phase)
}

func RemovePhase(round uint64) func(*badger.Txn) error {
	return remove(makePrefix(codePhase, round))
}

func UpsertResult(round uint64, solution *model.Solution) func(*badger.Txn) error {
	return upsert(makePrefix(codeResult, round), solution)
}

func RetrieveResult(round uint64, solution *model.Solution) func(*badger.Txn) error {
	return retrieve(makePrefix(codeResult, round), solution)
}

func RemoveResult(round uint64) func(*badger.Txn) error {
	return remove(makePrefix(codeResult, round))
}

func UpsertUnsignedMarks(round uint64, submitters []model.Identifier) func(*badger.Txn) error {
	return upsert(makePrefix(codeUnsignedMarks, round), submitters)
}

func RetrieveUnsignedMarks(round uint64, submitters *[]model.Identifier) func(*badger.Txn) error {
	return retrieve(makePrefix(codeUnsignedMarks, round), submitters)
}

func RemoveUnsignedMarks(round uint64) func(*badger.Txn) error {
	return remove(makePrefix(codeUnsignedMarks, round))
}

func RemoveSnapshot(round uint64) func(*badger.Txn) error {
	return remove(makePrefix(codeSnapshot, round))
}
