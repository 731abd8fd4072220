package config

type WorkerKeyStruct struct {
	PersistCheckinsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistCheckinsQueue: "persist_checkins_queue",
}
