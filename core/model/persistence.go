package model

import (
	"encoding/gob"
	"io"
	"os"

	"github.com/matpipe/matpipe/pkg/errors"
)

// SaveModel はモデルをファイルに保存する
//
// モデルは gob でエンコード可能である必要がある（linear.LinearRegression と
// linear.Ridge は GobEncoder を実装している）。
//
// 使用例:
//
//	reg := linear.NewLinearRegression()
//	// ... モデルの学習 ...
//	err := model.SaveModel(reg, "model.gob")
func SaveModel(model interface{}, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to create model file %s", filename)
	}
	defer file.Close()

	if err := SaveModelToWriter(model, file); err != nil {
		return err
	}
	return errors.WithStack(file.Close())
}

// LoadModel はファイルからモデルを読み込む
//
// 使用例:
//
//	reg := linear.NewLinearRegression()
//	err := model.LoadModel(reg, "model.gob")
func LoadModel(model interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to open model file %s", filename)
	}
	defer file.Close()

	return LoadModelFromReader(model, file)
}

// SaveModelToWriter はモデルをio.Writerに保存する
func SaveModelToWriter(model interface{}, w io.Writer) error {
	encoder := gob.NewEncoder(w)
	if err := encoder.Encode(model); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// LoadModelFromReader はio.Readerからモデルを読み込む
func LoadModelFromReader(model interface{}, r io.Reader) error {
	decoder := gob.NewDecoder(r)
	if err := decoder.Decode(model); err != nil {
		return errors.Wrap(err, "failed to decode model")
	}
	return nil
}
