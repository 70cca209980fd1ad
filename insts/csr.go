package insts

// CSRAddrMask limits CSR addresses to their 12-bit encoding space.
const CSRAddrMask = 0xFFF

// Machine-mode CSR addresses.
const (
	CSRMstatus  uint16 = 0x300
	CSRMisa     uint16 = 0x301
	CSRMie      uint16 = 0x304
	CSRMtvec    uint16 = 0x305
	CSRMscratch uint16 = 0x340
	CSRMepc     uint16 = 0x341
	CSRMcause   uint16 = 0x342
	CSRMtval    uint16 = 0x343
	CSRMip      uint16 = 0x344
	CSRMhartid  uint16 = 0xF14
)

// Synchronous exception causes as written to mcause.
const (
	CauseInsnMisaligned   uint32 = 0
	CauseInsnAccessFault  uint32 = 1
	CauseIllegalInsn      uint32 = 2
	CauseBreakpoint       uint32 = 3
	CauseLoadMisaligned   uint32 = 4
	CauseLoadAccessFault  uint32 = 5
	CauseStoreMisaligned  uint32 = 6
	CauseStoreAccessFault uint32 = 7
	CauseEnvCallFromU     uint32 = 8
	CauseEnvCallFromS     uint32 = 9
	CauseEnvCallFromM     uint32 = 11
)
