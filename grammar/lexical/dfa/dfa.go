package dfa

import "sort"

// StateID identifies a DFA state. 0 is reserved as "no transition" (a dead
// state), mirroring how the transition table below leaves unreachable
// cells at their zero value.
type StateID uint32

const StateIDInvalid StateID = 0
const stateIDMin StateID = 1

type symbolTable struct {
	symPos2Byte map[symbolPosition]byteRange
	endPositions map[symbolPosition]bool
}

func genSymbolTable(root byteTree) *symbolTable {
	symTab := &symbolTable{
		symPos2Byte:  map[symbolPosition]byteRange{},
		endPositions: map[symbolPosition]bool{},
	}
	return genSymTab(symTab, root)
}

func genSymTab(symTab *symbolTable, node byteTree) *symbolTable {
	if node == nil {
		return symTab
	}

	switch n := node.(type) {
	case *symbolNode:
		symTab.symPos2Byte[n.pos] = byteRange{
			from: n.from,
			to:   n.to,
		}
	case *acceptNode:
		symTab.endPositions[n.pos] = true
	default:
		left, right := node.children()
		genSymTab(symTab, left)
		genSymTab(symTab, right)
	}
	return symTab
}

// DFA is the subset-construction result over byte transitions: states are
// identified by the (hashed) canonical set of positions they represent, so
// two different byteTrees that happen to produce the same follow
// structure naturally merge.
type DFA struct {
	States               []string
	InitialState         string
	AcceptingStates      map[string]bool
	TransitionTable      map[string][256]string
}

func GenDFA(root byteTree, symTab *symbolTable) *DFA {
	initialState := root.first()
	initialStateHash := initialState.hash()
	stateMap := map[string]*symbolPositionSet{
		initialStateHash: initialState,
	}
	tranTab := map[string][256]string{}
	{
		follow := genFollowTable(root)
		unmarkedStates := map[string]*symbolPositionSet{
			initialStateHash: initialState,
		}
		for len(unmarkedStates) > 0 {
			nextUnmarkedStates := map[string]*symbolPositionSet{}
			for hash, state := range unmarkedStates {
				tranTabOfState := [256]*symbolPositionSet{}
				for _, pos := range state.set() {
					if pos.isEndMark() {
						continue
					}
					valRange := symTab.symPos2Byte[pos]
					for symVal := valRange.from; symVal <= valRange.to; symVal++ {
						if tranTabOfState[symVal] == nil {
							tranTabOfState[symVal] = newSymbolPositionSet()
						}
						tranTabOfState[symVal].merge(follow[pos])
					}
				}
				for _, t := range tranTabOfState {
					if t == nil {
						continue
					}
					h := t.hash()
					if _, ok := stateMap[h]; ok {
						continue
					}
					stateMap[h] = t
					nextUnmarkedStates[h] = t
				}
				tabOfState := [256]string{}
				for v, t := range tranTabOfState {
					if t == nil {
						continue
					}
					tabOfState[v] = t.hash()
				}
				tranTab[hash] = tabOfState
			}
			unmarkedStates = nextUnmarkedStates
		}
	}

	accTab := map[string]bool{}
	{
		for h, s := range stateMap {
			for _, pos := range s.set() {
				if pos.isEndMark() {
					accTab[h] = true
					break
				}
			}
		}
	}

	var states []string
	{
		for s := range stateMap {
			states = append(states, s)
		}
		sort.Slice(states, func(i, j int) bool {
			return states[i] < states[j]
		})
	}

	return &DFA{
		States:          states,
		InitialState:    initialStateHash,
		AcceptingStates: accTab,
		TransitionTable: tranTab,
	}
}

// TransitionTable is a dense [state][byte]->state array, flattened into a
// single slice for cache-friendly scanning during matching; row 0 is the
// all-dead-transitions row, so StateIDInvalid indexes into it and any
// attempted transition from it stays dead.
type TransitionTable struct {
	InitialStateID StateID
	AcceptingStates []bool
	Transition      []StateID
	RowCount        int
	ColCount        int
}

func (t *TransitionTable) Next(s StateID, b byte) StateID {
	return t.Transition[int(s)*t.ColCount+int(b)]
}

func (t *TransitionTable) IsAccepting(s StateID) bool {
	if int(s) >= len(t.AcceptingStates) {
		return false
	}
	return t.AcceptingStates[s]
}

func GenTransitionTable(dfa *DFA) (*TransitionTable, error) {
	stateHash2ID := map[string]StateID{}
	for i, s := range dfa.States {
		stateHash2ID[s] = StateID(i) + stateIDMin
	}

	rowCount := len(dfa.States) + 1
	colCount := 256

	acc := make([]bool, rowCount)
	for _, s := range dfa.States {
		if dfa.AcceptingStates[s] {
			acc[stateHash2ID[s]] = true
		}
	}

	tran := make([]StateID, rowCount*colCount)
	for s, tab := range dfa.TransitionTable {
		for v, to := range tab {
			if to == "" {
				continue
			}
			tran[int(stateHash2ID[s])*256+v] = stateHash2ID[to]
		}
	}

	return &TransitionTable{
		InitialStateID:  stateHash2ID[dfa.InitialState],
		AcceptingStates: acc,
		Transition:      tran,
		RowCount:        rowCount,
		ColCount:        colCount,
	}, nil
}
